package agentloop

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// Environment describes the machine the commands will run on.
type Environment struct {
	WorkingDir string
	IsGitRepo  bool
	GitBranch  string
	Platform   string
	Arch       string
	Shell      string
	Date       time.Time
}

// DetectEnvironment inspects the process working directory.
func DetectEnvironment(shell string, now time.Time) Environment {
	workingDir, _ := os.Getwd()
	env := Environment{
		WorkingDir: workingDir,
		Platform:   runtime.GOOS,
		Arch:       runtime.GOARCH,
		Shell:      shell,
		Date:       now,
	}
	if workingDir != "" && isGitRepository(workingDir) {
		env.IsGitRepo = true
		env.GitBranch = getGitBranch(workingDir)
	}
	return env
}

// BuildEnvironmentContext generates the structured environment context block.
func BuildEnvironmentContext(env Environment) string {
	var sb strings.Builder
	sb.WriteString("<environment>\n")
	if env.WorkingDir != "" {
		fmt.Fprintf(&sb, "Working directory: %s\n", env.WorkingDir)
	}
	fmt.Fprintf(&sb, "Is git repository: %v\n", env.IsGitRepo)
	if env.GitBranch != "" {
		fmt.Fprintf(&sb, "Git branch: %s\n", env.GitBranch)
	}
	fmt.Fprintf(&sb, "OS: %s\n", env.Platform)
	fmt.Fprintf(&sb, "Architecture: %s\n", env.Arch)
	if env.Shell != "" {
		fmt.Fprintf(&sb, "Shell: %s\n", env.Shell)
	}
	if !env.Date.IsZero() {
		fmt.Fprintf(&sb, "Today's date: %s\n", env.Date.Format("2006-01-02"))
	}
	sb.WriteString("</environment>")
	return sb.String()
}

// BuildSystemPrompt appends the environment block to the base prompt.
func BuildSystemPrompt(base string, env Environment) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return BuildEnvironmentContext(env)
	}
	return base + "\n\n" + BuildEnvironmentContext(env)
}

func isGitRepository(dir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = dir
	out, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(out)) == "true"
}

func getGitBranch(dir string) string {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

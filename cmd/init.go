package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/robowriter/internal/project"
	"github.com/KaramelBytes/robowriter/internal/utils"
	"github.com/spf13/cobra"
)

var (
	initDescription string
	initDir         string
)

var initCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Initialize a new RoboWriter project with sample data and template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		projDir := initDir
		if projDir == "" {
			root, err := defaultProjectsDir()
			if err != nil {
				return err
			}
			projDir = filepath.Join(root, name)
		}
		// Refuse to scaffold into a non-empty directory.
		if entries, err := os.ReadDir(projDir); err == nil && len(entries) > 0 {
			return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize project", projDir)
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("inspect project directory: %w", err)
		}
		p, err := project.Scaffold(name, initDescription, projDir)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Project initialized: %s\n", p.RootDir())
		fmt.Fprintf(out, "  Edit %s and %s, then run: robowriter render %s\n", p.DataSource.File, p.Template, name)
		return nil
	},
}

func defaultProjectsDir() (string, error) {
	if cfg != nil && cfg.ProjectsDir != "" {
		dir := cfg.ProjectsDir
		if strings.HasPrefix(dir, "~") {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home dir: %w", err)
			}
			dir = strings.TrimPrefix(dir, "~")
			dir = strings.TrimPrefix(dir, string(os.PathSeparator))
			dir = strings.TrimPrefix(dir, "/")
			dir = filepath.Join(home, dir)
		}
		dir = filepath.Clean(dir)
		if err := utils.EnsureProjectDir(dir); err != nil {
			return "", err
		}
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	dir := filepath.Join(home, ".robowriter", "projects")
	if err := utils.EnsureProjectDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// resolveProjectDir accepts a project directory, a project name under
// projects_dir, or nothing to search upward from the working directory.
func resolveProjectDir(arg string) (string, error) {
	if arg == "" {
		return utils.FindProjectRoot("")
	}
	if _, err := os.Stat(filepath.Join(arg, project.FileName)); err == nil {
		return arg, nil
	}
	if strings.ContainsRune(arg, os.PathSeparator) {
		return "", fmt.Errorf("no %s in %s", project.FileName, arg)
	}
	root, err := defaultProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, arg), nil
}

func loadProject(args []string) (*project.Project, error) {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}
	dir, err := resolveProjectDir(arg)
	if err != nil {
		return nil, err
	}
	p, err := project.LoadProject(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("project %q not found (looked in %s)", arg, dir)
	}
	return p, err
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "project description")
	initCmd.Flags().StringVar(&initDir, "dir", "", "create the project in this directory instead of projects_dir")
}

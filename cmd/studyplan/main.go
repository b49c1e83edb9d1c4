// Command studyplan is a terminal client for the studyplan API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/benjamonnguyen/studyplan"
	"github.com/benjamonnguyen/studyplan/charmlog"
	"github.com/benjamonnguyen/studyplan/client"
)

var (
	userHome, _    = os.UserHomeDir()
	DefaultLogPath = path.Join(userHome, ".studyplan", "studyplan.log")
)

func main() {
	// conf
	cfg, err := loadConfig()
	if err != nil {
		fmt.Println(colorize(colorRed, err.Error()))
		os.Exit(1)
	}

	logPath := cfg.Log.Path
	if logPath == "" {
		logPath = DefaultLogPath
	}
	w, closeLog, err := charmlog.OpenFile(logPath)
	if err != nil {
		panic(err)
	}
	defer closeLog() //nolint:errcheck
	logger := charmlog.NewLogger(charmlog.Options{Writer: w, Level: cfg.Log.Level})
	logger.Info("loaded config", "client", cfg.Client)

	token, err := client.LoadToken(cfg.Client.TokenPath)
	if err != nil {
		logger.Error("failed loading token", "error", err)
	}
	api := client.New(client.Options{
		BaseURL: cfg.Client.ServerURL,
		Timeout: cfg.Client.Timeout,
		Token:   token,
		Logger:  logger,
	})

	// handle initial args
	timeout, cancel := context.WithTimeout(context.Background(), cfg.Client.Timeout)
	defer cancel()
	opts, err := parseProgramArgs(timeout, os.Args[1:], api, cfg.Client.TokenPath)
	if err != nil {
		fmt.Println(colorize(colorRed, describeError(err)))
		os.Exit(1)
	}
	if opts.showHelp {
		fmt.Println(colorize(colorYellow, programUsage))
		os.Exit(0)
	}
	if opts.shouldExit {
		os.Exit(0)
	}
	if api.Token() == "" {
		fmt.Println(colorize(colorYellow, "Not logged in.\n\n"+programUsage))
		os.Exit(1)
	}

	// start program
	fmt.Println(colorize(colorYellow, logo))
	fmt.Printf("\nEnter \"/h\" for help\n\n")

	userinput := textinput.New()
	userinput.Focus()
	userinput.CharLimit = 280
	userinput.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("221"))

	m := model{
		l:          logger,
		api:        api,
		cachePath:  cfg.Client.CachePath,
		cmdTimeout: cfg.Client.Timeout,
		dateFormat: "Jan 2",
		now:        time.Now,
		userinput:  userinput,
		vp:         viewport.New(0, 0),
	}

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		logger.Error(err.Error())
	}
}

// loadConfig reads $XDG_CONFIG_HOME/studyplan/config.yaml when it exists.
func loadConfig() (studyplan.Config, error) {
	var opts studyplan.LoadOptions
	if confDir, err := os.UserConfigDir(); err == nil {
		p := path.Join(confDir, "studyplan", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			opts.ConfigPath = p
		}
	}
	return studyplan.LoadConfig(opts)
}

type options struct {
	showHelp   bool
	shouldExit bool
}

func parseProgramArgs(ctx context.Context, args []string, api *client.Client, tokenPath string) (options, error) {
	var opts options

	if len(args) == 0 {
		return opts, nil
	}

	var cmd, arg string
	if strings.HasPrefix(args[0], "/") {
		cmd = args[0]
		if len(args) > 1 {
			arg = strings.Join(args[1:], " ")
		}
	} else {
		arg = strings.Join(args, " ")
	}

	opts.shouldExit = true
	switch cmd {
	case "", "/a":
		if arg == "" {
			opts.showHelp = true
			return opts, nil
		}
		status := studyplan.StatusToday
		if cmd == "/a" {
			status = studyplan.StatusBacklog
		}
		t, err := api.CreateTask(ctx, client.CreateTaskRequest{Title: arg, Status: string(status)})
		if err != nil {
			return options{}, err
		}
		fmt.Printf(`Added "%s" to %s`+"\n", t.Title, t.Status)
		return opts, nil
	case "/login", "/signup":
		if len(args) < 3 {
			opts.showHelp = true
			return opts, nil
		}
		var acct client.Account
		var err error
		if cmd == "/login" {
			acct, err = api.Login(ctx, args[1], args[2])
		} else {
			acct, err = api.Signup(ctx, strings.Join(args[3:], " "), args[1], args[2])
		}
		if err != nil {
			return options{}, err
		}
		if err := client.SaveToken(tokenPath, acct.Token); err != nil {
			return options{}, err
		}
		fmt.Printf("Logged in as %s\n", acct.User.Email)
		return opts, nil
	case "/logout":
		if err := client.ClearToken(tokenPath); err != nil {
			return options{}, err
		}
		api.SetToken("")
		fmt.Println("Logged out")
		return opts, nil
	case "/h":
		opts.showHelp = true
		return opts, nil
	}
	return options{}, errors.New("unknown command " + cmd + "\n\n" + programUsage)
}

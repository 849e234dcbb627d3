package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-exam-client/internal/config"
	"github.com/jrsteele09/go-exam-client/oauthmodel"
	"github.com/spf13/cobra"
)

const (
	Version     = "0.1.0"
	passwordVar = "EXAM_PASSWORD"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	withApp := func(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath, logLevel)
			if err != nil {
				return err
			}
			defer a.close()
			return fn(cmd, a, args)
		}
	}

	cmd := &cobra.Command{
		Use:   "examclient",
		Short: "Exam practice client",
		Long: `examclient logs in to the exam practice service, keeps the session
alive across runs and fetches and submits question sets.

The session is stored in the data folder (FOLDER) and renewed automatically
shortly before the access token expires.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			displayAppname(cfg.GetAppName())
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		loginCmd(withApp),
		logoutCmd(withApp),
		statusCmd(withApp),
		questionsCmd(withApp),
		submitCmd(withApp),
		signupCmd(withApp),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("examclient version %s\n", Version)
			},
		},
	)
	return cmd
}

type appRunner func(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error

func loginCmd(withApp appRunner) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if password == "" {
				password = config.GetEnv(passwordVar, "")
			}
			err := a.manager.Login(cmd.Context(), oauthmodel.LoginRequest{Username: username, Password: password})
			if err != nil {
				return err
			}
			displayAppname(a.config.GetAppName())
			profile, _ := oauthmodel.ParseProfile(a.manager.Snapshot().User)
			fmt.Printf("Logged in as %s\n", profile.DisplayName())
			return nil
		}),
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (defaults to $"+passwordVar+")")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func logoutCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			a.manager.Logout()
			fmt.Println("Logged out")
			return nil
		}),
	}
}

func statusCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			s := a.manager.Snapshot()
			fmt.Printf("Status:      %s\n", s.Status)
			if !s.IsAuthenticated {
				return nil
			}
			profile, _ := oauthmodel.ParseProfile(s.User)
			fmt.Printf("User:        %s\n", profile.DisplayName())
			fmt.Printf("Expires at:  %s (%s)\n", s.ExpiresAt.Local().Format(time.RFC1123), time.Until(s.ExpiresAt).Round(time.Second))
			if due, ok := a.manager.NextRenewal(); ok {
				fmt.Printf("Renewal due: %s\n", due.Local().Format(time.RFC1123))
			}
			return nil
		}),
	}
}

func questionsCmd(withApp appRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "questions <year> <month>",
		Short: "List the questions of an exam sitting",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			year, month, err := parsePeriod(args)
			if err != nil {
				return err
			}
			if err := a.requireSession(); err != nil {
				return err
			}
			questions, err := a.exams.FetchQuestions(cmd.Context(), year, month)
			if err != nil {
				return err
			}
			for _, q := range questions {
				fmt.Printf("%2d. %s\n", q.Number, q.Text)
				if q.Description != "" {
					fmt.Printf("    %s\n", q.Description)
				}
			}
			return nil
		}),
	}
}

func submitCmd(withApp appRunner) *cobra.Command {
	var (
		answers string
		elapsed time.Duration
	)
	cmd := &cobra.Command{
		Use:   "submit <year> <month>",
		Short: "Submit answers for an exam sitting",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			year, month, err := parsePeriod(args)
			if err != nil {
				return err
			}
			if err := a.requireSession(); err != nil {
				return err
			}
			profile, err := oauthmodel.ParseProfile(a.manager.Snapshot().User)
			if err != nil {
				return fmt.Errorf("reading saved profile: %w", err)
			}

			result, err := a.exams.SubmitAnswers(cmd.Context(), oauthmodel.Submission{
				UserID:      profile.ID,
				Year:        year,
				Month:       month,
				UserAnswers: splitAnswers(answers),
				Time:        int(elapsed.Seconds()),
			})
			if err != nil {
				return err
			}
			if result.Score != nil {
				fmt.Printf("Submitted, score %d\n", *result.Score)
				return nil
			}
			fmt.Println("Submitted")
			return nil
		}),
	}
	cmd.Flags().StringVarP(&answers, "answers", "a", "", "Comma separated answers in question order")
	cmd.Flags().DurationVarP(&elapsed, "time", "t", 0, "Time spent on the sitting, e.g. 25m")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func signupCmd(withApp appRunner) *cobra.Command {
	var req oauthmodel.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
			if req.Password == "" {
				req.Password = config.GetEnv(passwordVar, "")
			}
			if err := a.api.Signup(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Printf("Account %s created, run login to start a session\n", req.Username)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "Password (defaults to $"+passwordVar+")")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func parsePeriod(args []string) (int, int, error) {
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", args[0])
	}
	month, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q", args[1])
	}
	return year, month, oauthmodel.ValidateExamPeriod(year, month)
}

func splitAnswers(raw string) []string {
	var answers []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			answers = append(answers, a)
		}
	}
	return answers
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

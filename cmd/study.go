package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/sanlang/internal/app"
)

// defaultUser is the learner when neither an argument nor SANLANG_USER
// names one.
const defaultUser = "me"

var studyCmd = &cobra.Command{
	Use:   "study [user]",
	Short: "Start an interactive study session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := ""
		if len(args) == 1 {
			user = args[0]
		}
		return runStudy(cmd, user)
	},
}

func init() {
	studyCmd.Flags().StringP("lang", "l", "ja", "Language code")
}

// runStudy opens the store, builds the services and launches the TUI.
func runStudy(cmd *cobra.Command, user string) error {
	if user == "" {
		user = os.Getenv("SANLANG_USER")
	}
	if user == "" {
		user = defaultUser
	}
	lang := "ja"
	if f := cmd.Flags().Lookup("lang"); f != nil {
		lang = f.Value.String()
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	svc, err := buildServices(cmd.Context(), s, false)
	if err != nil {
		return err
	}

	study := app.NewStudy(user, lang, app.StudyDeps{
		Store:     s,
		Catalog:   svc.catalog,
		Vocab:     svc.vocab,
		Decks:     svc.decks,
		Learners:  svc.learners,
		Progress:  svc.progress,
		Recommend: svc.recommend,
	})
	return app.Run(study)
}

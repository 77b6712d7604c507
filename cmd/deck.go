package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var deckCmd = &cobra.Command{
	Use:   "deck",
	Short: "Manage vocabulary decks and subscriptions",
}

var deckListCmd = &cobra.Command{
	Use:   "list [user]",
	Short: "List decks, or a learner's subscriptions when a user is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := buildServices(cmd.Context(), s, false)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			list, err := svc.decks.Decks(cmd.Context(), lang)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No decks found.")
				return nil
			}
			fmt.Printf("%-24s  %-4s  %6s  %s\n", "ID", "Lvl", "Words", "Name")
			fmt.Println(strings.Repeat("─", 72))
			for _, d := range list {
				fmt.Printf("%-24s  %-4s  %6d  %s\n", truncate(d.ID, 24), d.Level, d.TotalWords, d.Name)
			}
			return nil
		}

		subs, err := svc.decks.Subscriptions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			fmt.Println("No subscriptions.")
			return nil
		}
		fmt.Printf("%-24s  %-9s  %11s  %7s  %5s  %s\n", "Deck", "Status", "Added", "Studied", "Daily", "Last drip")
		fmt.Println(strings.Repeat("─", 80))
		for _, sub := range subs {
			fmt.Printf("%-24s  %-9s  %5d/%-5d  %7d  %5d  %s\n",
				truncate(sub.DeckID, 24), sub.Status,
				sub.WordsAdded, sub.TotalWordsInDeck, sub.WordsStudied,
				sub.DailyNewCards, sub.LastDripDate)
		}
		return nil
	},
}

var deckSubscribeCmd = &cobra.Command{
	Use:   "subscribe <user> <deck>",
	Short: "Subscribe a learner to a deck",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		daily, _ := cmd.Flags().GetInt("daily")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := buildServices(cmd.Context(), s, false)
		if err != nil {
			return err
		}
		sub, err := svc.decks.Subscribe(cmd.Context(), args[0], args[1], daily, time.Now())
		if err != nil {
			return err
		}
		fmt.Printf("Subscribed %s to %s (%s, %d new cards a day).\n", args[0], sub.DeckID, sub.Status, sub.DailyNewCards)
		return nil
	},
}

var deckUnsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe <user> <deck>",
	Short: "Remove a learner's deck subscription",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := buildServices(cmd.Context(), s, false)
		if err != nil {
			return err
		}
		if err := svc.decks.Unsubscribe(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Unsubscribed %s from %s.\n", args[0], args[1])
		return nil
	},
}

var deckActivateCmd = &cobra.Command{
	Use:   "activate <user> <deck>",
	Short: "Make a deck the learner's active deck",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := buildServices(cmd.Context(), s, false)
		if err != nil {
			return err
		}
		if err := svc.decks.SetActiveDeck(cmd.Context(), args[0], args[1], time.Now()); err != nil {
			return err
		}
		fmt.Printf("%s is now active for %s.\n", args[1], args[0])
		return nil
	},
}

var deckDripCmd = &cobra.Command{
	Use:   "drip [user]",
	Short: "Add today's new cards for one learner, or for everyone with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) == 1) {
			return fmt.Errorf("give either a user or --all")
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

		if all {
			n, err := svc.decks.DripAll(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Dripped %d active subscription(s).\n", n)
			return nil
		}

		res, err := svc.decks.Drip(cmd.Context(), args[0], time.Now())
		if err != nil {
			return err
		}
		if res == nil {
			fmt.Println("No active deck.")
			return nil
		}
		fmt.Printf("Added %d word(s) from %s", len(res.Added), res.DeckID)
		if res.Skipped > 0 {
			fmt.Printf(", %d already known", res.Skipped)
		}
		fmt.Println(".")
		if len(res.Added) > 0 {
			fmt.Println("  " + strings.Join(res.Added, "、"))
		}
		if res.Completed {
			fmt.Println("Deck completed.")
		}
		return nil
	},
}

func init() {
	deckListCmd.Flags().StringP("lang", "l", "", "Filter decks by language")
	deckSubscribeCmd.Flags().Int("daily", 0, "New cards per day (default drip.default_daily_new_cards)")
	deckDripCmd.Flags().Bool("all", false, "Drip every active subscription")

	deckCmd.AddCommand(deckListCmd)
	deckCmd.AddCommand(deckSubscribeCmd)
	deckCmd.AddCommand(deckUnsubscribeCmd)
	deckCmd.AddCommand(deckActivateCmd)
	deckCmd.AddCommand(deckDripCmd)
}

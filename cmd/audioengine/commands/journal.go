package commands

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/oakmix/audioengine/pkg/journal"
	"github.com/oakmix/audioengine/pkg/kv"
)

var (
	journalDir     string
	journalSession string
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect a session's durable lifecycle journal",
}

var journalReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Print every journal record for --session in sequence order",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadJournalRecords(cmd)
		if err != nil {
			return err
		}
		for _, rec := range records {
			out, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		}
		return nil
	},
}

var journalQueryCmd = &cobra.Command{
	Use:   "query <jq-expr>",
	Short: "Filter a session's journal with a jq expression",
	Long: `Replay --session's journal records as a JSON array and run a jq
expression over it (github.com/itchyny/gojq).

Examples:
  audioengine journal query --dir ./journal --session sess1 '.[] | select(.type == "error")'
  audioengine journal query --dir ./journal --session sess1 'length'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadJournalRecords(cmd)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(records)
		if err != nil {
			return err
		}
		var input any
		if err := json.Unmarshal(payload, &input); err != nil {
			return err
		}

		query, err := gojq.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid jq expression %q: %w", args[0], err)
		}

		iter := query.Run(input)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, ok := v.(error); ok {
				return fmt.Errorf("jq error: %w", err)
			}
			out, err := json.Marshal(v)
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		}
		return nil
	},
}

func loadJournalRecords(cmd *cobra.Command) ([]journal.Record, error) {
	if journalDir == "" {
		return nil, fmt.Errorf("flag --dir is required")
	}
	if journalSession == "" {
		return nil, fmt.Errorf("flag --session is required")
	}

	store, err := kv.NewBadger(kv.BadgerOptions{Dir: journalDir})
	if err != nil {
		return nil, fmt.Errorf("opening journal store: %w", err)
	}
	defer store.Close()

	j := journal.New(store)
	return j.Replay(cmd.Context(), journalSession)
}

func init() {
	journalCmd.PersistentFlags().StringVar(&journalDir, "dir", "", "journal store directory")
	journalCmd.PersistentFlags().StringVar(&journalSession, "session", "", "session id")
	journalCmd.AddCommand(journalReplayCmd, journalQueryCmd)
	rootCmd.AddCommand(journalCmd)
}

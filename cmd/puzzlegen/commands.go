package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/robalobadob/spellbee/internal/config"
	"github.com/robalobadob/spellbee/internal/daily"
	"github.com/robalobadob/spellbee/internal/game"
	"github.com/robalobadob/spellbee/internal/words"
)

// options are the flags shared by every subcommand.
type options struct {
	wordsFile string
	salt      string
	date      string
}

func newRootCmd() *cobra.Command {
	var o options
	root := &cobra.Command{
		Use:          "puzzlegen",
		Short:        "Generate and inspect daily letter puzzles",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&o.wordsFile, "words", "", "word list file (default: embedded corpus, or WORDS_FILE)")
	root.PersistentFlags().StringVar(&o.salt, "salt", "", "generation salt (default: DAILY_SALT)")

	root.AddCommand(newGenerateCmd(&o), newCheckCmd(&o), newStatsCmd(&o))
	return root
}

func newGenerateCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print the puzzle for a date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := o.puzzle()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}
			printPuzzle(out, p)
			return nil
		},
	}
	cmd.Flags().StringVar(&o.date, "date", "", "puzzle date YYYY-MM-DD (default: today, UTC)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full puzzle as JSON")
	return cmd
}

func newCheckCmd(o *options) *cobra.Command {
	var word string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a word against a date's puzzle",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if word == "" {
				return fmt.Errorf("--word is required")
			}
			p, err := o.puzzle()
			if err != nil {
				return err
			}
			res := game.Validate(p, word, nil)
			if res.Accepted {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: accepted (%s)\n", res.Word, res.Message(p))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: rejected, %s (%s)\n", res.Word, res.Reason, res.Message(p))
			return nil
		},
	}
	cmd.Flags().StringVar(&o.date, "date", "", "puzzle date YYYY-MM-DD (default: today, UTC)")
	cmd.Flags().StringVar(&word, "word", "", "word to check")
	return cmd
}

func newStatsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the word list",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, dict, err := o.load()
			if err != nil {
				return err
			}
			s := dict.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "words: %d\nletter sets: %d\npangram sets: %d\n", s.Words, s.Masks, s.PangramMasks)
			return nil
		},
	}
}

// load resolves configuration from the environment, then applies flags.
func (o *options) load() (*config.Config, *words.Dictionary, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if o.wordsFile != "" {
		cfg.Puzzle.WordsFile = o.wordsFile
	}
	if o.salt != "" {
		cfg.Puzzle.Salt = o.salt
	}
	var dict *words.Dictionary
	if cfg.Puzzle.WordsFile == "" {
		dict, err = words.LoadDefault()
	} else {
		dict, err = words.LoadFile(cfg.Puzzle.WordsFile)
	}
	if err != nil {
		return nil, nil, err
	}
	return cfg, dict, nil
}

func (o *options) puzzle() (*game.Puzzle, error) {
	date := o.date
	if date == "" {
		date = daily.Key(time.Now(), time.UTC)
	}
	if _, err := daily.ParseKey(date); err != nil {
		return nil, err
	}
	cfg, dict, err := o.load()
	if err != nil {
		return nil, err
	}
	gen, err := game.NewGenerator(dict, cfg.Generator())
	if err != nil {
		return nil, err
	}
	return gen.Generate(date)
}

func printPuzzle(w io.Writer, p *game.Puzzle) {
	fmt.Fprintf(w, "date:     %s\n", p.Seed)
	fmt.Fprintf(w, "center:   %s\n", p.Center)
	fmt.Fprintf(w, "outer:    %s\n", strings.Join(p.Outer, " "))
	fmt.Fprintf(w, "words:    %d\n", len(p.ValidWords))
	fmt.Fprintf(w, "pangrams: %s\n", strings.Join(p.Pangrams, ", "))
	fmt.Fprintf(w, "max:      %d\n", p.MaxScore)
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/promptweave/promptweave/internal/config"
	"github.com/promptweave/promptweave/tokenizer"
)

func newCountCmd() *cobra.Command {
	var encoding string

	cmd := &cobra.Command{
		Use:   "count [file]",
		Short: "Count the tokens in a file or stdin",
		Long: `Tokenize text with the configured encoding and print the token count.

Reads from the given file, or from stdin when no file is given.

Examples:
  promptweave count prompt.txt
  cat prompt.txt | promptweave count
  promptweave count prompt.txt --encoding o200k_base`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if encoding == "" {
				encoding = cfg.Tokenizer.Encoding
			}

			var raw []byte
			if len(args) == 1 {
				raw, err = os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read file: %w", err)
				}
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}

			tok, err := tokenizer.NewTiktoken(encoding)
			if err != nil {
				return fmt.Errorf("init tokenizer: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), len(tok.Tokenize(string(raw))))
			return nil
		},
	}

	cmd.Flags().StringVarP(&encoding, "encoding", "e", "", "tiktoken encoding name override")

	return cmd
}

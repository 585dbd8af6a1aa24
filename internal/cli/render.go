package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/promptweave/promptweave/chat"
	"github.com/promptweave/promptweave/internal/config"
	"github.com/promptweave/promptweave/prompt"
	"github.com/promptweave/promptweave/template"
	"github.com/promptweave/promptweave/tokenizer"
)

func newRenderCmd() *cobra.Command {
	var (
		dataFile   string
		namespace  string
		format     string
		tokenLimit int
		step       int
		tokenize   bool
		useCache   bool
	)

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template into a prompt",
		Long: `Render a template against a YAML data file and print the result.

The template argument is a filesystem path, or a path inside a registered
namespace when --namespace is given. The built-in chat helpers are always
available to the template.

Examples:
  promptweave render prompts/chat.yml.tmpl --data session.yml
  promptweave render templates/chat.yml.tmpl --namespace examples --data session.yml
  promptweave render prompts/chat.yml.tmpl --data session.yml --token-limit 4096 --format messages`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if tokenLimit == 0 {
				tokenLimit = cfg.Truncation.TokenLimit
			}
			if step == 0 {
				step = cfg.Truncation.Step
			}

			data := map[string]any{}
			if dataFile != "" {
				raw, err := os.ReadFile(dataFile)
				if err != nil {
					return fmt.Errorf("read data file: %w", err)
				}
				if err := yaml.Unmarshal(raw, &data); err != nil {
					return fmt.Errorf("parse data file: %w", err)
				}
			}

			reg := template.NewRegistry(cfg.Templates.CacheMaxEntries,
				time.Duration(cfg.Templates.CacheTTLSecs)*time.Second)
			chat.RegisterTemplates(reg)

			// The encoding data is only fetched when the prompt is
			// actually tokenized.
			truncate := tokenLimit > 0
			var tok tokenizer.Tokenizer
			if tokenize || truncate || format == "tokens" {
				tok, err = tokenizer.NewTiktoken(cfg.Tokenizer.Encoding)
				if err != nil {
					return fmt.Errorf("init tokenizer: %w", err)
				}
			}

			p, err := prompt.New(data, prompt.Options{
				TemplatePath:   args[0],
				Namespace:      namespace,
				Registry:       reg,
				FromCache:      useCache,
				Funcs:          chat.Funcs(),
				Tokenizer:      tok,
				TokenLimit:     tokenLimit,
				TruncationStep: step,
			})
			if err != nil {
				return err
			}

			if tokenize || truncate || format == "tokens" {
				if err := p.Tokenize(); err != nil {
					return err
				}
			}
			if truncate {
				if err := p.Truncate(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			switch format {
			case "string":
				fmt.Fprintln(out, p.String())
			case "messages":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(p.Messages()); err != nil {
					return fmt.Errorf("encode messages: %w", err)
				}
			case "tokens":
				ids, err := p.Tokens()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ids)
			default:
				return fmt.Errorf("unknown format %q: want string, messages, or tokens", format)
			}

			if tokenize || truncate {
				fmt.Fprintf(cmd.ErrOrStderr(), "--- %d tokens ---\n", p.TotalTokens())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataFile, "data", "d", "", "YAML file with template data")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "registered template namespace to resolve the path in")
	cmd.Flags().StringVarP(&format, "format", "f", "string", "output format: string, messages, or tokens")
	cmd.Flags().IntVar(&tokenLimit, "token-limit", 0, "token budget; truncates the prompt when positive")
	cmd.Flags().IntVar(&step, "truncation-step", 0, "truncation batching granularity")
	cmd.Flags().BoolVar(&tokenize, "tokenize", false, "tokenize the prompt and report its token count")
	cmd.Flags().BoolVar(&useCache, "use-cache", false, "reuse the compiled template cache")

	return cmd
}

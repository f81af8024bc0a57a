package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AireshBhat/nramh-lis/internal/cliout"
	"github.com/AireshBhat/nramh-lis/internal/config"
	"github.com/AireshBhat/nramh-lis/internal/fileconfig"
)

var configOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and manage lis configuration",
}

func init() {
	configCmd.PersistentFlags().StringVarP(&configOutput, "output", "o", "table", "Output format (table|json|yaml)")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configAnalyzerCmd)

	configAnalyzerCmd.AddCommand(configAnalyzerListCmd)
	configAnalyzerCmd.AddCommand(configAnalyzerGetCmd)
	configAnalyzerCmd.AddCommand(configAnalyzerSetCmd)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the loaded AppConfig (logging, API, HIS, metrics)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(getConfigFile())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return printConfigOutput(cfg)
	},
}

var configAnalyzerCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Manage per-analyzer configuration entries in the config store",
}

var configAnalyzerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every known analyzer's configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzerStore, err := openAnalyzerStore()
		if err != nil {
			return err
		}
		cfg, err := config.Load(getConfigFile())
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		configs, err := analyzerStore.List(cfg.KnownAnalyzerIDs)
		if err != nil {
			return fmt.Errorf("list analyzer configs: %w", err)
		}
		return printTableOrStructured(analyzerConfigsTable(configs), configs)
	},
}

var configAnalyzerGetCmd = &cobra.Command{
	Use:   "get <analyzer-id>",
	Short: "Show one analyzer's configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzerStore, err := openAnalyzerStore()
		if err != nil {
			return err
		}
		cfg, ok, err := analyzerStore.Get(args[0])
		if err != nil {
			return fmt.Errorf("load analyzer config %q: %w", args[0], err)
		}
		if !ok {
			return fmt.Errorf("no analyzer config for id %q", args[0])
		}
		return printTableOrStructured(analyzerConfigsTable([]config.AnalyzerConfig{cfg}), cfg)
	},
}

var (
	setDisplayName     string
	setHost            string
	setPort            int
	setActivateOnStart bool
	setTimeoutMs       int
	setRetryAttempts   int
	setEncoding        string
)

var configAnalyzerSetCmd = &cobra.Command{
	Use:   "set <analyzer-id>",
	Short: "Create or update an analyzer's configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		analyzerStore, err := openAnalyzerStore()
		if err != nil {
			return err
		}

		cfg, ok, err := analyzerStore.Get(id)
		if err != nil {
			return fmt.Errorf("load analyzer config %q: %w", id, err)
		}
		now := time.Now()
		if !ok {
			cfg = config.AnalyzerConfig{
				ID:        id,
				Status:    config.StatusInactive,
				CreatedAt: now,
			}
		}
		if setDisplayName != "" {
			cfg.DisplayName = setDisplayName
		}
		if setHost != "" {
			cfg.Transport.Kind = config.TransportTCP
			cfg.Transport.Host = setHost
		}
		if setPort != 0 {
			cfg.Transport.Kind = config.TransportTCP
			cfg.Transport.Port = setPort
		}
		if cmd.Flags().Changed("activate-on-start") {
			cfg.ActivateOnStart = setActivateOnStart
		}
		cfg.UpdatedAt = now

		if err := config.ValidateConfig(cfg, setTimeoutMs, setRetryAttempts, setEncoding, nil); err != nil {
			return err
		}
		if err := analyzerStore.Set(cfg); err != nil {
			return fmt.Errorf("persist analyzer config %q: %w", id, err)
		}
		return printTableOrStructured(analyzerConfigsTable([]config.AnalyzerConfig{cfg}), cfg)
	},
}

func init() {
	configAnalyzerSetCmd.Flags().StringVar(&setDisplayName, "display-name", "", "analyzer display name")
	configAnalyzerSetCmd.Flags().StringVar(&setHost, "host", "", "listen host (TCP transport)")
	configAnalyzerSetCmd.Flags().IntVar(&setPort, "port", 0, "listen port (TCP transport)")
	configAnalyzerSetCmd.Flags().BoolVar(&setActivateOnStart, "activate-on-start", false, "start this analyzer's service automatically on boot")
	configAnalyzerSetCmd.Flags().IntVar(&setTimeoutMs, "timeout-ms", 10000, "session read timeout in milliseconds (validated only; not stored)")
	configAnalyzerSetCmd.Flags().IntVar(&setRetryAttempts, "retry-attempts", 3, "max frame retry count (validated only; not stored)")
	configAnalyzerSetCmd.Flags().StringVar(&setEncoding, "encoding", "UTF-8", "wire encoding, UTF-8|ASCII (validated only; not stored)")
}

func openAnalyzerStore() (*config.AnalyzerConfigStore, error) {
	cfg, err := config.Load(getConfigFile())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	store, err := fileconfig.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open config store %q: %w", cfg.Store.Path, err)
	}
	return config.NewAnalyzerConfigStore(store), nil
}

func analyzerConfigsTable(configs []config.AnalyzerConfig) cliout.TableRenderer {
	return analyzerTableRenderer{configs: configs}
}

type analyzerTableRenderer struct {
	configs []config.AnalyzerConfig
}

func (r analyzerTableRenderer) Headers() []string {
	return []string{"ID", "DISPLAY NAME", "PROTOCOL", "HOST:PORT", "ACTIVATE ON START", "STATUS"}
}

func (r analyzerTableRenderer) Rows() [][]string {
	rows := make([][]string, 0, len(r.configs))
	for _, c := range r.configs {
		rows = append(rows, []string{
			c.ID,
			c.DisplayName,
			string(c.Protocol),
			fmt.Sprintf("%s:%d", c.Transport.Host, c.Transport.Port),
			fmt.Sprintf("%t", c.ActivateOnStart),
			string(c.Status),
		})
	}
	return rows
}

func printConfigOutput(data any) error {
	format, err := cliout.ParseFormat(configOutput)
	if err != nil {
		return err
	}
	switch format {
	case cliout.FormatJSON:
		return cliout.PrintJSON(os.Stdout, data)
	case cliout.FormatYAML:
		return cliout.PrintYAML(os.Stdout, data)
	default:
		return cliout.PrintYAML(os.Stdout, data)
	}
}

func printTableOrStructured(table cliout.TableRenderer, structured any) error {
	format, err := cliout.ParseFormat(configOutput)
	if err != nil {
		return err
	}
	switch format {
	case cliout.FormatJSON:
		return cliout.PrintJSON(os.Stdout, structured)
	case cliout.FormatYAML:
		return cliout.PrintYAML(os.Stdout, structured)
	default:
		return cliout.PrintTable(os.Stdout, table)
	}
}

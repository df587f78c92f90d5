package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundpost/soundpost/client/upload-client/client"
	"github.com/soundpost/soundpost/client/upload-client/config"
)

type clientFactory func(cfg *config.Config) client.UploadServerClient

func newHTTPClient(cfg *config.Config) client.UploadServerClient {
	return client.NewUploadServerClient(cfg.ServerURL, cfg.ServerTimeout())
}

type commandContext struct {
	configFlag  string
	serverURL   string
	timeoutSecs int
	jsonOutput  bool
	factory     clientFactory
}

func (c *commandContext) client() (client.UploadServerClient, *config.Config, error) {
	cfg, err := config.LoadConfig(strings.TrimSpace(c.configFlag))
	if err != nil {
		return nil, nil, err
	}
	cfg.Override(config.ConfigOverrides{
		ServerURL:            &c.serverURL,
		ServerTimeoutSeconds: &c.timeoutSecs,
	})
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return c.factory(cfg), cfg, nil
}

func (c *commandContext) print(cmd *cobra.Command, value interface{}, text string) error {
	if !c.jsonOutput {
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	}
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func newRootCommand(factory clientFactory) *cobra.Command {
	if factory == nil {
		factory = newHTTPClient
	}
	ctx := &commandContext{factory: factory}

	rootCmd := &cobra.Command{
		Use:           "upload-client",
		Short:         "Upload videos to a SoundPost server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "config.json", "Configuration file path")
	flags.StringVar(&ctx.serverURL, "server-url", "", "Server URL (overrides config)")
	flags.IntVar(&ctx.timeoutSecs, "timeout", 0, "Request timeout in seconds (overrides config)")
	flags.BoolVar(&ctx.jsonOutput, "json", false, "Print responses as JSON")

	rootCmd.AddCommand(newUploadCommand(ctx))
	rootCmd.AddCommand(newPingCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newPreflightCommand(ctx))
	rootCmd.AddCommand(newSoundsCommand(ctx))

	return rootCmd
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var request client.UploadRequest

	cmd := &cobra.Command{
		Use:   "upload <video>",
		Short: "Upload a video, optionally mixed with a sound, and publish it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, cfg, err := ctx.client()
			if err != nil {
				return err
			}

			request.FilePath = args[0]
			if request.AccountName == "" {
				request.AccountName = cfg.DefaultAccount
			}
			if request.VolumeProfile == "" && request.SoundName != "" {
				request.VolumeProfile = cfg.DefaultProfile
			}
			if request.AccountName == "" {
				return fmt.Errorf("an account is required: pass --account or set default_account")
			}

			response, err := api.Upload(cmd.Context(), request)
			if err != nil {
				if client.IsRecoverableUploadError(err) {
					return fmt.Errorf("%w (the server may succeed if you retry)", err)
				}
				return err
			}

			return ctx.print(cmd, response, fmt.Sprintf("%s\n%s", response.Message, response.Result.Output))
		},
	}

	cmd.Flags().StringVarP(&request.AccountName, "account", "a", "", "Account to publish as")
	cmd.Flags().StringVarP(&request.Description, "description", "d", "", "Caption text")
	cmd.Flags().StringSliceVarP(&request.Hashtags, "hashtags", "t", nil, "Hashtags, comma separated")
	cmd.Flags().StringVarP(&request.SoundName, "sound", "s", "", "Sound to mix into the video")
	cmd.Flags().StringVarP(&request.VolumeProfile, "volume", "v", "", "Volume profile: mix, background or main")

	return cmd
}

func newPingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := ctx.client()
			if err != nil {
				return err
			}
			response, err := api.Ping(cmd.Context())
			if err != nil {
				return err
			}
			return ctx.print(cmd, response, fmt.Sprintf("%s: %s", response.Status, response.Message))
		},
	}
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var account string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := ctx.client()
			if err != nil {
				return err
			}
			records, err := api.History(cmd.Context(), account, limit)
			if err != nil {
				return err
			}
			if ctx.jsonOutput {
				return ctx.print(cmd, records, "")
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tACCOUNT\tFILE\tSOUND\tSTATUS\tERROR")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.CreatedAt.Local().Format(time.DateTime), r.Account, r.FileName, r.SoundName, r.Status, firstLine(r.Error))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "Only show uploads of this account")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of uploads")

	return cmd
}

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight <account>",
		Short: "Check that an account can publish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := ctx.client()
			if err != nil {
				return err
			}
			response, err := api.Preflight(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !response.Ready {
				return fmt.Errorf("account %s is not ready: %s", response.Account, response.Error)
			}
			return ctx.print(cmd, response, fmt.Sprintf("account %s is ready to publish", response.Account))
		},
	}
}

func newSoundsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sounds",
		Short: "List the sounds and volume profiles offered by the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := ctx.client()
			if err != nil {
				return err
			}
			response, err := api.Sounds(cmd.Context())
			if err != nil {
				return err
			}
			text := fmt.Sprintf("sounds: %s\nprofiles: %s",
				strings.Join(response.Sounds, ", "), strings.Join(response.Profiles, ", "))
			return ctx.print(cmd, response, text)
		},
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

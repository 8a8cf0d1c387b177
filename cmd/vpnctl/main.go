// Package main は運用CLIツールのエントリポイント。
// APIを経由せず、パラメータストアを直接操作する。
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appconfig "vpn-credential-service/config"
	"vpn-credential-service/internal/infra"
	"vpn-credential-service/internal/repository"
)

const version = "1.0.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "vpnctl",
		Short: "VPN Credential Service operator CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
		},
	}

	// サブコマンド登録
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(serverKeyCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRepository はストアに直結したリポジトリを生成する。
func newRepository(ctx context.Context) (*repository.CredentialRepository, error) {
	cfg := appconfig.Load()

	var store infra.ParamStore
	var err error
	switch cfg.ParamStore {
	case "local":
		store, err = infra.NewLocalParamStore(cfg.LocalStorePath)
	default:
		store, err = infra.NewSSMParamStore(ctx, cfg.AWSRegion)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing parameter store: %w", err)
	}

	return repository.NewCredentialRepository(store, cfg.SSMPrefix), nil
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vpnctl version %s\n", version)
		},
	}
}

// initCmd はマスターAPIキーを生成して保存する。
func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate and store the master API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := newRepository(ctx)
			if err != nil {
				return err
			}

			masterKey := uuid.New().String()
			if err := repo.SetMasterKey(ctx, masterKey, force); err != nil {
				if errors.Is(err, infra.ErrParameterAlreadyExists) {
					return fmt.Errorf("master API key is already configured (use --force to overwrite)")
				}
				return fmt.Errorf("storing master key: %w", err)
			}

			fmt.Println("Master API key configured.")
			fmt.Printf("Key: %s\n", masterKey)
			fmt.Println("Store this key securely; it will not be shown again.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing master key")
	return cmd
}

// serverKeyCmd はサーバー公開鍵の設定・表示コマンド。
func serverKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server-key",
		Short: "Manage the WireGuard server public key",
	}

	var key string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store the server public key used in client configs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if key == "" {
				return fmt.Errorf("--key is required")
			}
			repo, err := newRepository(ctx)
			if err != nil {
				return err
			}
			if err := repo.SetServerPublicKey(ctx, key); err != nil {
				return fmt.Errorf("storing server public key: %w", err)
			}
			fmt.Println("Server public key configured.")
			return nil
		},
	}
	setCmd.Flags().StringVar(&key, "key", "", "Base64-encoded server public key (required)")
	setCmd.MarkFlagRequired("key")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configured server public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := newRepository(ctx)
			if err != nil {
				return err
			}
			serverKey, err := repo.ServerPublicKey(ctx)
			if err != nil {
				return fmt.Errorf("reading server public key: %w", err)
			}
			fmt.Println(serverKey)
			return nil
		},
	}

	cmd.AddCommand(setCmd)
	cmd.AddCommand(showCmd)
	return cmd
}

// usersCmd はユーザー資格情報の一覧・削除コマンド。
func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage client credentials",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all registered client IDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := newRepository(ctx)
			if err != nil {
				return err
			}
			ids, err := repo.ListClientIDs(ctx)
			if err != nil {
				return fmt.Errorf("listing clients: %w", err)
			}
			if len(ids) == 0 {
				fmt.Println("No clients registered.")
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}

	var clientID string
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a client credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if clientID == "" {
				return fmt.Errorf("--client is required")
			}
			repo, err := newRepository(ctx)
			if err != nil {
				return err
			}
			exists, err := repo.Exists(ctx, clientID)
			if err != nil {
				return fmt.Errorf("checking client: %w", err)
			}
			if !exists {
				return fmt.Errorf("client %q not found", clientID)
			}
			if err := repo.Delete(ctx, clientID); err != nil {
				return fmt.Errorf("deleting client: %w", err)
			}
			fmt.Printf("Deleted client %q\n", clientID)
			return nil
		},
	}
	deleteCmd.Flags().StringVar(&clientID, "client", "", "Client ID (required)")
	deleteCmd.MarkFlagRequired("client")

	cmd.AddCommand(listCmd)
	cmd.AddCommand(deleteCmd)
	return cmd
}

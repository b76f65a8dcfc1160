package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/vc-anchorage/anchorage"
	"github.com/vc-anchorage/anchorage/cmd/anchorage/config"
	"github.com/vc-anchorage/anchorage/storage/model"
	"github.com/vc-anchorage/anchorage/vault"
)

var rootCmd = &cobra.Command{
	Use:   "ancli",
	Short: "ancli can help you manage your Anchorage credential registry",
	Long:  "ancli can help you manage your Anchorage credential registry",
}

var configFile string
var storages model.Backends

func loadConfig() error {
	config.Load(configFile)
	log.Println("Loaded Config")
	c := config.Get()

	var err error
	storages, err = config.LoadStorageBackends(c.Storage)
	if err != nil {
		log.Fatal(err)
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new base64 vault key for sealing stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := vault.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Println(key)
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List the registered api users",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		users, err := storages.Users.List()
		if err != nil {
			return err
		}
		return printJSON(users)
	},
}

var userAddCmd = &cobra.Command{
	Use:   "useradd <username> <password> [user_type]",
	Short: "Register a new api user",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		var userType string
		if len(args) > 2 {
			userType = args[2]
		}
		user, err := storages.Users.Create(args[0], args[1], userType)
		if err != nil {
			return err
		}
		return printJSON(user)
	},
}

var userDelCmd = &cobra.Command{
	Use:   "userdel <username>",
	Short: "Delete an api user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		return storages.Users.Delete(args[0])
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <jti> [reason]",
	Short: "Revoke a stored credential",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		var reason string
		if len(args) > 1 {
			reason = args[1]
		}
		already, err := storages.Credentials.Revoke(args[0], reason)
		if err != nil {
			return err
		}
		if already {
			log.Println("credential was already revoked")
		} else {
			log.Println("credential revoked")
		}
		return nil
	},
}

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Print the current trust bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		bundle, err := anchorage.BuildTrustBundle(storages.Issuers)
		if err != nil {
			return err
		}
		return printJSON(bundle)
	},
}

var revocationsCmd = &cobra.Command{
	Use:   "revocations",
	Short: "Print the current revocation list",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		list, err := anchorage.BuildRevocationList(storages.Revocations)
		if err != nil {
			return err
		}
		return printJSON(list)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "the config file to use")
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userDelCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(bundleCmd)
	rootCmd.AddCommand(revocationsCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

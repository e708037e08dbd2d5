// Copyright 2026 Loupe Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the Anthropic API key in the OS keyring",
	Long: heredoc.Doc(`
		Store or remove the Anthropic API key in the OS keyring.

		A key stored here is used automatically when neither the
		--anthropic-key flag nor the ANTHROPIC_API_KEY environment variable
		is set.
	`),
}

var keySetCmd = &cobra.Command{
	Use:   "set <api-key>",
	Short: "Store the API key in the keyring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := SaveAPIKeyToKeyring(args[0]); err != nil {
			return fmt.Errorf("saving key to keyring: %w", err)
		}
		fmt.Println("API key saved to keyring")
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the API key from the keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := DeleteAPIKeyFromKeyring(); err != nil {
			return fmt.Errorf("deleting key from keyring: %w", err)
		}
		fmt.Println("API key removed from keyring")
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd)
	keyCmd.AddCommand(keyDeleteCmd)
	rootCmd.AddCommand(keyCmd)
}

/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/uxtran/internal/backend"
	"github.com/valpere/uxtran/internal/prompt"
	"github.com/valpere/uxtran/internal/retry"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List target languages and backend providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tLANGUAGE\tFALLBACK TAG")
		for _, code := range prompt.Languages {
			fmt.Fprintf(w, "%s\t%s\t%s\n", code, prompt.LanguageName(code), retry.LangTag(code))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Println()
		fmt.Println("Providers:")
		for _, p := range backend.Providers() {
			marker := " "
			if p == cfg.Backend.Provider {
				marker = "*"
			}
			fmt.Printf(" %s %s\n", marker, p)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}

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
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/uxtran/internal/store"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Inspect a terminology glossary file",
	Long: `Glossary files are YAML lists of entries:

  - source_lang: ko
    target_lang: en
    source: 회원가입
    target: Sign Up

Pass the file to "uxtran translate --glossary" so matching source terms are
always translated to the same target term. An empty source_lang matches any
source language.`,
}

var (
	glossaryListFile   string
	glossaryListSource string
	glossaryListTarget string
)

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "Validate a glossary file and list its entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := store.NewSession()
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}
		defer db.Close()

		ctx := context.Background()
		if err := loadGlossary(ctx, db, glossaryListFile); err != nil {
			return err
		}

		entries, err := db.ListGlossaryTerms(ctx, glossaryListSource, glossaryListTarget)
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("Glossary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE LANG\tTARGET LANG\tSOURCE TERM\tTARGET TERM")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				orAny(e.SourceLang), e.TargetLang, e.SourceTerm, e.TargetTerm)
		}
		return w.Flush()
	},
}

func orAny(lang string) string {
	if lang == "" {
		return "*"
	}
	return lang
}

func init() {
	rootCmd.AddCommand(glossaryCmd)
	glossaryCmd.AddCommand(glossaryListCmd)

	glossaryListCmd.Flags().StringVarP(&glossaryListFile, "file", "f", "", "Glossary YAML file (required)")
	glossaryListCmd.Flags().StringVar(&glossaryListSource, "source", "", "Filter by source language")
	glossaryListCmd.Flags().StringVar(&glossaryListTarget, "target", "", "Filter by target language")

	glossaryListCmd.MarkFlagRequired("file")
}

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
	"github.com/spf13/cobra"

	"github.com/valpere/uxtran/internal"
)

var (
	inputFile    string
	outputFile   string
	targetLang   string
	glossaryFile string
	reportFile   string
	useMemory    bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate UI text items into a target language",
	Long: `Translate a list of {id, content} items (YAML, JSON or CSV) into a target
language. Placeholders such as {name}, {{count}}, %s and HTML tags are kept
intact.

Example:
  uxtran translate -i strings.yaml -o strings.en.yaml -t en
  uxtran translate -i strings.csv -o out.json -t ja --glossary terms.yaml --report review.html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(cmd.Context(), useMemory, glossaryFile)
		if err != nil {
			return err
		}
		defer p.Close()

		return runJob(cmd, p, internal.Translate(targetLang), inputFile, outputFile, reportFile)
	},
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input items file, or - for YAML on stdin (required)")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "-", "Output file; format follows the extension")
	translateCmd.Flags().StringVarP(&targetLang, "target", "t", "", "Target language code (required)")
	translateCmd.Flags().StringVarP(&glossaryFile, "glossary", "g", "", "Glossary YAML file with terms translations must use")
	translateCmd.Flags().StringVar(&reportFile, "report", "", "Write a review report (.md, .html or .txt)")
	translateCmd.Flags().BoolVar(&useMemory, "memory", false, "Reuse results for repeated texts within this run")

	translateCmd.MarkFlagRequired("input")
	translateCmd.MarkFlagRequired("target")
}

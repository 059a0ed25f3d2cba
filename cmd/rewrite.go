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
	rewriteInput   string
	rewriteOutput  string
	rewriteReport  string
	withReason     bool
	rewriteTone    string
	rewriteContext string
	rewriteMemory  bool
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite",
	Short: "Rewrite UI text items for clarity and consistency",
	Long: `Rewrite a list of {id, content} items in their own language, the way a UX
writer would: clear, concise and consistent in tone.

With --with-reason every entry also gets a short explanation of the change.

Example:
  uxtran rewrite -i strings.yaml -o improved.yaml --with-reason --tone friendly`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if rewriteTone != "" {
			cfg.Rewrite.Tone = rewriteTone
		}
		if rewriteContext != "" {
			cfg.Rewrite.Context = rewriteContext
		}

		p, err := buildPipeline(cmd.Context(), rewriteMemory, "")
		if err != nil {
			return err
		}
		defer p.Close()

		mode := internal.Rewrite()
		if withReason {
			mode = internal.RewriteWithReason()
		}
		return runJob(cmd, p, mode, rewriteInput, rewriteOutput, rewriteReport)
	},
}

func init() {
	rootCmd.AddCommand(rewriteCmd)

	rewriteCmd.Flags().StringVarP(&rewriteInput, "input", "i", "", "Input items file, or - for YAML on stdin (required)")
	rewriteCmd.Flags().StringVarP(&rewriteOutput, "output", "o", "-", "Output file; format follows the extension")
	rewriteCmd.Flags().StringVar(&rewriteReport, "report", "", "Write a review report (.md, .html or .txt)")
	rewriteCmd.Flags().BoolVar(&withReason, "with-reason", false, "Return a reason for each rewrite")
	rewriteCmd.Flags().StringVar(&rewriteTone, "tone", "", "Tone to write in (detected per text if empty)")
	rewriteCmd.Flags().StringVar(&rewriteContext, "context", "", "Where the texts appear, e.g. \"checkout page\"")
	rewriteCmd.Flags().BoolVar(&rewriteMemory, "memory", false, "Reuse results for repeated texts within this run")

	rewriteCmd.MarkFlagRequired("input")
}

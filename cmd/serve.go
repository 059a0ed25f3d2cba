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

	"github.com/valpere/uxtran/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pipeline as MCP tools over stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout.

Tools: translate_texts, rewrite_texts, improve_text, add_glossary_term,
list_glossary_terms, delete_glossary_term, list_jobs, memory_stats.

Translation memory, glossary and job history last for the server session.
Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := buildPipeline(cmd.Context(), true, "")
		if err != nil {
			return err
		}
		defer p.Close()

		srv := mcpserver.New(p.orch, p.client, p.store, logger)
		return srv.Run(cmd.Context(), version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

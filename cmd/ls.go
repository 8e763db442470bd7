// Copyright 2024 The Backpackfs Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"sort"

	"github.com/googlecloudplatform/backpackfs/pack"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls <archive>",
	Short: "List the entries in a backpack archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := pack.OpenRawFile(args[0])
		if err != nil {
			return err
		}
		bp, err := pack.Open(raw)
		if err != nil {
			return err
		}
		defer bp.CloseDropUnwrittenChanges()

		names := bp.Names()
		sort.Strings(names)
		for _, name := range names {
			f, err := bp.GetFile(name)
			if err != nil {
				return err
			}
			b, err := f.GetBytes()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%8d  %s\n", len(b), name)
		}
		return nil
	},
}

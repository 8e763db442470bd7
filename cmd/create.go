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
	"path/filepath"

	"github.com/googlecloudplatform/backpackfs/pack"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var createCmd = &cobra.Command{
	Use:   "create <archive> <file>...",
	Short: "Create a new backpack archive from one or more files",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		archivePath, inputs := args[0], args[1:]

		backing, err := pack.CreateRawFile(archivePath)
		if err != nil {
			return err
		}
		bp, err := pack.Create(backing)
		if err != nil {
			return err
		}

		// Every input is read from disk and inserted independently, so
		// fanning the work out across an errgroup overlaps their disk
		// reads; BackPack.AddFileNamed is safe to call concurrently
		// because insert() only ever holds its locks briefly.
		var g errgroup.Group
		for _, input := range inputs {
			input := input
			g.Go(func() error {
				raw, err := pack.OpenRawFileReadOnly(input)
				if err != nil {
					return err
				}
				_, err = bp.AddFileNamed(raw, filepath.Base(input))
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if _, err := bp.Close(); err != nil {
			return err
		}
		return nil
	},
}

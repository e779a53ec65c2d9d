/*
 * HP48 - Offline control CLI: ROM/state inspection and conversion.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcornwell/hp48emu/emu/saturn"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hp48ctl",
		Short: "Inspect and prepare HP-48 emulator images",
	}
	root.AddCommand(infoCmd(), dumpRegsCmd(), convertROMCmd(), fetchSnapshotCmd())
	return root
}

func infoCmd() *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "info <rom-file>",
		Short: "Print ROM size and detected packing",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			m := saturn.ModelSX
			if strings.EqualFold(model, "GX") {
				m = saturn.ModelGX
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			want := saturn.ROMSizeSX
			if m == saturn.ModelGX {
				want = saturn.ROMSizeGX
			}
			packed := len(data) != want
			fmt.Printf("model=%s bytes=%d unpacked-nibbles=%d packed=%v\n", m, len(data), want, packed)
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", "SX", "calculator model: SX or GX")
	return cmd
}

func dumpRegsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump-regs <state-file>",
		Short: "Print the register file from a saved state blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			blob, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			s := saturn.NewSaturn()
			if err := saturn.ReadState(s, blob); err != nil {
				return err
			}
			fmt.Printf("PC=%05x P=%x Carry=%d\n", s.PC, s.P, s.Carry)
			fmt.Printf("A=%x B=%x C=%x D=%x\n", s.A, s.B, s.C, s.D)
			fmt.Printf("D0=%05x D1=%05x Rstkp=%d\n", s.D0, s.D1, s.Rstkp)
			return nil
		},
	}
	return cmd
}

func convertROMCmd() *cobra.Command {
	var pack, unpack bool
	cmd := &cobra.Command{
		Use:   "convert-rom <in> <out>",
		Short: "Pack or unpack a ROM/RAM nibble image",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			if pack == unpack {
				return fmt.Errorf("specify exactly one of --pack or --unpack")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var out []byte
			if pack {
				out = saturn.PackNibbles(data)
			} else {
				out = saturn.UnpackNibbles(data)
			}
			return os.WriteFile(args[1], out, 0o644)
		},
	}
	cmd.Flags().BoolVar(&pack, "pack", false, "pack one-nibble-per-byte input into two-nibbles-per-byte")
	cmd.Flags().BoolVar(&unpack, "unpack", false, "unpack two-nibbles-per-byte input into one-nibble-per-byte")
	return cmd
}

func fetchSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot <url> <out-file>",
		Short: "Fetch a PNG snapshot from a running hp48emud instance",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			resp, err := http.Get(args[0])
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("snapshot request failed: %s", resp.Status)
			}
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			return os.WriteFile(args[1], body, 0o644)
		},
	}
	return cmd
}

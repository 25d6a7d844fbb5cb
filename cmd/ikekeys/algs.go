package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iniwex5/ikekeys/pkg/crypto"
)

func (a *app) algsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algs",
		Short: "列出已登记的哈希、PRF 与完整性算法",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := crypto.Default()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			fmt.Fprintln(w, "TYPE\tID\tNAME\tKEY\tOUT\tFIPS\tKERNEL")
			for d := range reg.Hashes() {
				fmt.Fprintf(w, "%s\t%d\t%s\t-\t%d\t%v\t-\n", d.Type(), d.ID, d.Name, d.DigestSize, d.FIPS)
			}
			for d := range reg.PRFs() {
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%v\t-\n", d.Type(), d.ID, d.Name, d.KeySize, d.OutputSize, d.FIPS)
			}
			for d := range reg.Integs() {
				kernel := d.KernelName
				if kernel == "" {
					kernel = "-"
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%d\t%v\t%s\n", d.Type(), d.ID, d.Name, d.KeymatSize, d.OutputSize, d.FIPS, kernel)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nFIPS PSK 最小长度: %d 字节\n", reg.FIPSKeySizeFloor())
			return nil
		},
	}
}

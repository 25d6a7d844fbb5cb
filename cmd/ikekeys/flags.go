package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iniwex5/ikekeys/pkg/crypto"
	"github.com/iniwex5/ikekeys/pkg/ikev2"
)

func hexArg(cmd *cobra.Command, name string, required bool) ([]byte, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		if required {
			return nil, fmt.Errorf("--%s 不能为空", name)
		}
		return nil, nil
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return b, nil
}

func prfArg(cmd *cobra.Command) (*crypto.PRFDesc, error) {
	s, _ := cmd.Flags().GetString("prf")
	if id, err := strconv.ParseUint(s, 10, 16); err == nil {
		return crypto.GetPRF(uint16(id))
	}
	d, ok := crypto.Default().PRFByName(s)
	if !ok {
		return nil, fmt.Errorf("未知 PRF: %s", s)
	}
	return d, nil
}

func integArg(cmd *cobra.Command) (*crypto.IntegDesc, error) {
	s, _ := cmd.Flags().GetString("integ")
	if id, err := strconv.ParseUint(s, 10, 16); err == nil {
		return crypto.GetIntegrityAlgorithm(uint16(id))
	}
	d, ok := crypto.Default().IntegByName(s)
	if !ok {
		return nil, fmt.Errorf("未知完整性算法: %s", s)
	}
	return d, nil
}

func roleArg(cmd *cobra.Command) (ikev2.Role, error) {
	s, _ := cmd.Flags().GetString("role")
	switch strings.ToLower(s) {
	case "initiator", "i":
		return ikev2.RoleInitiator, nil
	case "responder", "r":
		return ikev2.RoleResponder, nil
	}
	return 0, fmt.Errorf("未知角色: %s", s)
}

func spiArg(cmd *cobra.Command, name string) (uint64, error) {
	s, _ := cmd.Flags().GetString(name)
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", name, err)
	}
	return v, nil
}

func addNonceFlags(cmd *cobra.Command) {
	cmd.Flags().String("ni", "", "Ni (hex)")
	cmd.Flags().String("nr", "", "Nr (hex)")
}

func nonceArgs(cmd *cobra.Command) (ni, nr []byte, err error) {
	if ni, err = hexArg(cmd, "ni", true); err != nil {
		return nil, nil, err
	}
	if nr, err = hexArg(cmd, "nr", true); err != nil {
		return nil, nil, err
	}
	return ni, nr, nil
}

func printKey(cmd *cobra.Command, name string, k *crypto.SymKey) {
	if k == nil || k.Len() == 0 {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", name, hex.EncodeToString(k.Extract()))
}

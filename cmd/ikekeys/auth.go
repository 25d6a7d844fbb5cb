package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iniwex5/ikekeys/pkg/crypto"
	"github.com/iniwex5/ikekeys/pkg/ikev2"
)

func (a *app) pskAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "psk-auth",
		Short: "计算或校验 PSK / NULL 认证的 AUTH",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prf, err := prfArg(cmd)
			if err != nil {
				return err
			}
			role, err := roleArg(cmd)
			if err != nil {
				return err
			}
			ni, nr, err := nonceArgs(cmd)
			if err != nil {
				return err
			}
			first, err := hexArg(cmd, "first-packet", true)
			if err != nil {
				return err
			}
			skp, err := hexArg(cmd, "sk-p", true)
			if err != nil {
				return err
			}
			received, err := hexArg(cmd, "verify", false)
			if err != nil {
				return err
			}
			idType, _ := cmd.Flags().GetUint8("id-type")
			id, _ := cmd.Flags().GetString("id")
			conn, _ := cmd.Flags().GetString("connection")
			null, _ := cmd.Flags().GetBool("null")

			// 签名者的 SK_p 同时用于 ID 哈希与 NULL 认证
			signerKey := crypto.NewSymKey("SK_p", skp)
			defer signerKey.Release()
			idHash, err := ikev2.IDHash(prf, signerKey, ikev2.IDBody(idType, []byte(id)))
			if err != nil {
				return err
			}

			st := &ikev2.AuthState{
				Connection: conn,
				Role:       role,
				AuthBy:     ikev2.AuthByPSK,
				PRF:        prf,
				Ni:         ni,
				Nr:         nr,
			}
			if null {
				st.AuthBy = ikev2.AuthByNull
				st.SK_pi, st.SK_pr = signerKey, signerKey
			} else if st.PSK, err = a.cfg.PSK(conn); err != nil {
				return err
			}

			auth := ikev2.NewAuthenticator(nil)
			if received == nil {
				st.FirstPacketSent = first
				mac, err := auth.Sign(st, idHash)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), mac.String())
				return nil
			}

			st.FirstPacketReceived = first
			if err := auth.Verify(st, idHash, received); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}
	cmd.Flags().String("prf", "sha2_256", "PRF 名称或变换 ID")
	cmd.Flags().String("role", "initiator", "本端角色: initiator, responder")
	cmd.Flags().String("connection", "default", "连接名 (用于查找 PSK)")
	cmd.Flags().Bool("null", false, "使用 NULL 认证 (RFC 7619)")
	cmd.Flags().String("first-packet", "", "IKE_SA_INIT 消息 (hex)")
	cmd.Flags().String("sk-p", "", "签名方的 SK_pi 或 SK_pr (hex)")
	cmd.Flags().Uint8("id-type", ikev2.ID_FQDN, "ID 类型")
	cmd.Flags().String("id", "", "ID 数据")
	cmd.Flags().String("verify", "", "收到的 AUTH (hex)，为空时计算本端 AUTH")
	addNonceFlags(cmd)
	return cmd
}

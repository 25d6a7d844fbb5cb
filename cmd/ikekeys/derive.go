package main

import (
	"fmt"
	"net"

	"github.com/iniwex5/netlink"
	"github.com/spf13/cobra"

	"github.com/iniwex5/ikekeys/pkg/crypto"
	"github.com/iniwex5/ikekeys/pkg/driver"
	"github.com/iniwex5/ikekeys/pkg/ikev2"
	"github.com/iniwex5/ikekeys/pkg/logger"
)

func (a *app) skeyseedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skeyseed",
		Short: "计算 SKEYSEED (初始、rekey 或 PPK)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prf, err := prfArg(cmd)
			if err != nil {
				return err
			}
			dh, err := hexArg(cmd, "dh", false)
			if err != nil {
				return err
			}
			oldSKd, err := hexArg(cmd, "old-sk-d", false)
			if err != nil {
				return err
			}
			ppk, err := hexArg(cmd, "ppk", false)
			if err != nil {
				return err
			}

			var k *crypto.SymKey
			switch {
			case ppk != nil:
				if oldSKd == nil {
					return fmt.Errorf("--ppk 需要 --old-sk-d")
				}
				skd, pk := crypto.NewSymKey("SK_d", oldSKd), crypto.NewSymKey("PPK", ppk)
				defer skd.Release()
				defer pk.Release()
				k, err = ikev2.IKESAPPKIntermSkeyseed(prf, skd, pk)
			default:
				if dh == nil {
					return fmt.Errorf("--dh 不能为空")
				}
				ni, nr, nerr := nonceArgs(cmd)
				if nerr != nil {
					return nerr
				}
				g := crypto.NewSymKey("g^ir", dh)
				defer g.Release()
				if oldSKd != nil {
					skd := crypto.NewSymKey("SK_d", oldSKd)
					defer skd.Release()
					k, err = ikev2.IKESARekeySkeyseed(prf, skd, g, ni, nr)
				} else {
					k, err = ikev2.IKESASkeyseed(prf, ni, nr, g)
				}
			}
			if err != nil {
				return err
			}
			defer k.Release()
			printKey(cmd, "SKEYSEED", k)
			return nil
		},
	}
	cmd.Flags().String("prf", "sha2_256", "PRF 名称或变换 ID")
	cmd.Flags().String("dh", "", "g^ir (hex)")
	cmd.Flags().String("old-sk-d", "", "rekey / PPK 时旧 IKE SA 的 SK_d (hex)")
	cmd.Flags().String("ppk", "", "Post-quantum Preshared Key (hex)")
	addNonceFlags(cmd)
	return cmd
}

func (a *app) keymatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keymat",
		Short: "由 SKEYSEED 派生并切分 IKE SA 密钥",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prf, err := prfArg(cmd)
			if err != nil {
				return err
			}
			integ, err := integArg(cmd)
			if err != nil {
				return err
			}
			seed, err := hexArg(cmd, "skeyseed", true)
			if err != nil {
				return err
			}
			ni, nr, err := nonceArgs(cmd)
			if err != nil {
				return err
			}
			spii, err := spiArg(cmd, "spi-i")
			if err != nil {
				return err
			}
			spir, err := spiArg(cmd, "spi-r")
			if err != nil {
				return err
			}
			encLen, _ := cmd.Flags().GetInt("enc-key-len")

			integLen := integ.KeymatSize
			need := ikev2.IKESAKeyLen(prf, integLen, encLen)
			skeyseed := crypto.NewSymKey("SKEYSEED", seed)
			defer skeyseed.Release()
			km, err := ikev2.IKESAKeymat(prf, skeyseed, ni, nr, ikev2.SPIs{Initiator: spii, Responder: spir}, need)
			if err != nil {
				return err
			}
			defer km.Release()
			keys, err := ikev2.SplitIKESAKeys(km, prf, integLen, encLen)
			if err != nil {
				return err
			}
			defer keys.Release()

			printKey(cmd, "SK_d", keys.SK_d)
			printKey(cmd, "SK_ai", keys.SK_ai)
			printKey(cmd, "SK_ar", keys.SK_ar)
			printKey(cmd, "SK_ei", keys.SK_ei)
			printKey(cmd, "SK_er", keys.SK_er)
			printKey(cmd, "SK_pi", keys.SK_pi)
			printKey(cmd, "SK_pr", keys.SK_pr)
			return nil
		},
	}
	cmd.Flags().String("prf", "sha2_256", "PRF 名称或变换 ID")
	cmd.Flags().String("integ", "sha2_256_128", "完整性算法名称或变换 ID (AEAD 用 none)")
	cmd.Flags().Int("enc-key-len", 16, "加密密钥长度 (字节, 含 salt)")
	cmd.Flags().String("skeyseed", "", "SKEYSEED (hex)")
	cmd.Flags().String("spi-i", "", "发起方 SPI (hex)")
	cmd.Flags().String("spi-r", "", "响应方 SPI (hex)")
	addNonceFlags(cmd)
	return cmd
}

func (a *app) childCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "child",
		Short: "派生 Child SA 密钥，可选下发到内核 XFRM",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			prf, err := prfArg(cmd)
			if err != nil {
				return err
			}
			encrID, _ := cmd.Flags().GetUint16("encr")
			encrBits, _ := cmd.Flags().GetInt("encr-bits")
			encLen, err := driver.EncKeyLen(encrID, encrBits)
			if err != nil {
				return err
			}
			var integ *crypto.IntegDesc
			integLen := 0
			if !driver.IsAEADAlgorithm(encrID) {
				if integ, err = integArg(cmd); err != nil {
					return err
				}
				integLen = integ.KeymatSize
			}

			skd, err := hexArg(cmd, "sk-d", true)
			if err != nil {
				return err
			}
			dh, err := hexArg(cmd, "dh", false)
			if err != nil {
				return err
			}
			ni, nr, err := nonceArgs(cmd)
			if err != nil {
				return err
			}

			var g *crypto.SymKey
			if dh != nil {
				g = crypto.NewSymKey("g^ir (new)", dh)
				defer g.Release()
			}
			skdKey := crypto.NewSymKey("SK_d", skd)
			defer skdKey.Release()
			km, err := ikev2.ChildSAKeymat(prf, skdKey, g, ni, nr, ikev2.ChildSAKeyLen(encLen, integLen))
			if err != nil {
				return err
			}
			defer km.Release()
			keys, err := ikev2.SplitChildSAKeys(km, encLen, integLen)
			if err != nil {
				return err
			}
			defer keys.Release()

			printKey(cmd, "SK_ei", keys.SK_ei)
			printKey(cmd, "SK_ai", keys.SK_ai)
			printKey(cmd, "SK_er", keys.SK_er)
			printKey(cmd, "SK_ar", keys.SK_ar)

			if install, _ := cmd.Flags().GetBool("install"); !install {
				return nil
			}
			return installChildSA(cmd, encrID, encrBits, integ, keys)
		},
	}
	cmd.Flags().String("prf", "sha2_256", "PRF 名称或变换 ID")
	cmd.Flags().String("integ", "sha2_256_128", "完整性算法名称或变换 ID")
	cmd.Flags().Uint16("encr", uint16(ikev2.ENCR_AES_GCM_16), "加密算法变换 ID")
	cmd.Flags().Int("encr-bits", 128, "加密密钥位数 (不含 salt)")
	cmd.Flags().String("sk-d", "", "IKE SA 的 SK_d (hex)")
	cmd.Flags().String("dh", "", "PFS 时新的 g^ir (hex)")
	addNonceFlags(cmd)

	cmd.Flags().Bool("install", false, "把 SA 下发到内核 XFRM (需要 CAP_NET_ADMIN)")
	cmd.Flags().String("role", "initiator", "本端角色: initiator, responder")
	cmd.Flags().String("local", "", "本端地址")
	cmd.Flags().String("remote", "", "对端地址")
	cmd.Flags().Uint32("spi-in", 0, "入站 SPI")
	cmd.Flags().Uint32("spi-out", 0, "出站 SPI")
	return cmd
}

func installChildSA(cmd *cobra.Command, encrID uint16, encrBits int, integ *crypto.IntegDesc, keys *ikev2.ChildSAKeys) error {
	role, err := roleArg(cmd)
	if err != nil {
		return err
	}
	localStr, _ := cmd.Flags().GetString("local")
	remoteStr, _ := cmd.Flags().GetString("remote")
	local, remote := net.ParseIP(localStr), net.ParseIP(remoteStr)
	if local == nil || remote == nil {
		return fmt.Errorf("--install 需要有效的 --local 与 --remote")
	}
	spiIn, _ := cmd.Flags().GetUint32("spi-in")
	spiOut, _ := cmd.Flags().GetUint32("spi-out")

	out, in, err := driver.ChildSAConfigs(driver.ChildSAParams{
		Role:        role,
		Local:       local,
		Remote:      remote,
		SPIOut:      spiOut,
		SPIIn:       spiIn,
		EncrID:      encrID,
		EncrKeyBits: encrBits,
		Integ:       integ,
		Keys:        keys,
		Mode:        netlink.XFRM_MODE_TUNNEL,
	})
	if err != nil {
		return err
	}
	if err := driver.NewXFRMManager().InstallChildSA(out, in); err != nil {
		return err
	}
	logger.Info("Child SA 已下发",
		logger.Uint32("spi-in", spiIn),
		logger.Uint32("spi-out", spiOut),
		logger.String("local", local.String()),
		logger.String("remote", remote.String()))
	return nil
}

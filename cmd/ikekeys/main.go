package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iniwex5/ikekeys/pkg/config"
	"github.com/iniwex5/ikekeys/pkg/crypto"
	"github.com/iniwex5/ikekeys/pkg/logger"
)

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "ikekeys",
		Short:         "IKEv2 密钥派生与 PSK/NULL 认证工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.LoadViper(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			if err := c.Apply(); err != nil {
				return err
			}
			a.cfg = c
			return c.Validate(crypto.Default())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "配置文件 (yaml)")
	pf.String("log-level", "info", "日志级别: debug, info, warn, error")
	pf.String("log-format", "console", "日志格式: console, json")
	pf.Bool("fips", false, "以 FIPS 模式运行")
	_ = a.v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log_format", pf.Lookup("log-format"))
	_ = a.v.BindPFlag("fips_mode", pf.Lookup("fips"))

	root.AddCommand(
		a.algsCmd(),
		a.skeyseedCmd(),
		a.keymatCmd(),
		a.childCmd(),
		a.pskAuthCmd(),
		a.demoCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

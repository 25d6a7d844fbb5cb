package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/iniwex5/ikekeys/pkg/crypto"
	"github.com/iniwex5/ikekeys/pkg/logger"
)

// EnvPrefix 环境变量前缀，如 IKEKEYS_FIPS_MODE=true
const EnvPrefix = "IKEKEYS"

var (
	ErrSecretNotFound = errors.New("未配置共享密钥")
	ErrSecretTooShort = errors.New("共享密钥短于 FIPS 下限")
)

// Config 进程级配置
type Config struct {
	LogLevel  string            `mapstructure:"log_level"`
	LogFormat string            `mapstructure:"log_format"`
	FIPSMode  bool              `mapstructure:"fips_mode"`
	Secrets   map[string]string `mapstructure:"secrets"` // 连接名 -> PSK，"0x" 开头按十六进制解析
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("fips_mode", false)
	v.SetDefault("secrets", map[string]string{})
}

// Load 读取 path 指定的配置文件 (可为空)，环境变量优先于文件
func Load(path string) (*Config, error) {
	return LoadViper(viper.New(), path)
}

// LoadViper 使用调用方的 viper 实例，便于命令行参数通过 BindPFlag 覆盖配置
func LoadViper(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if c.Secrets == nil {
		c.Secrets = map[string]string{}
	}
	return &c, nil
}

// Apply 初始化全局日志与 FIPS 模式
func (c *Config) Apply() error {
	l, err := logger.New(c.LogLevel, c.LogFormat)
	if err != nil {
		return err
	}
	logger.SetLogger(l)
	crypto.SetFIPSMode(c.FIPSMode)
	return nil
}

// PSK 返回连接的共享密钥；viper 的键不区分大小写
func (c *Config) PSK(name string) ([]byte, error) {
	s, ok := c.Secrets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	return DecodeSecret(s)
}

// DecodeSecret "0x" 前缀按十六进制解析，否则取字面字节
func DecodeSecret(s string) ([]byte, error) {
	if h, ok := strings.CutPrefix(s, "0x"); ok {
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("十六进制密钥格式错误: %w", err)
		}
		return b, nil
	}
	return []byte(s), nil
}

// Validate 检查所有 PSK 是否满足 reg 中 FIPS PRF 的最小密钥长度
// FIPS 模式下不满足即为错误，否则只记录警告
func (c *Config) Validate(reg *crypto.Registry) error {
	floor := reg.FIPSKeySizeFloor()
	names := make([]string, 0, len(c.Secrets))
	for name := range c.Secrets {
		names = append(names, name)
	}
	slices.Sort(names)

	var err error
	for _, name := range names {
		psk, decErr := DecodeSecret(c.Secrets[name])
		if decErr != nil {
			err = multierr.Append(err, fmt.Errorf("连接 %s: %w", name, decErr))
			continue
		}
		if len(psk) >= floor {
			continue
		}
		if c.FIPSMode {
			err = multierr.Append(err, fmt.Errorf("%w: 连接 %s 长度 %d < %d", ErrSecretTooShort, name, len(psk), floor))
			continue
		}
		logger.Warn("PSK 长度低于 FIPS 下限",
			logger.String("connection", name),
			logger.Int("psk-len", len(psk)),
			logger.Int("floor", floor))
	}
	return err
}

package driver

import (
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/iniwex5/netlink"
	"go.uber.org/multierr"

	"github.com/iniwex5/ikekeys/pkg/crypto"
	"github.com/iniwex5/ikekeys/pkg/ikev2"
)

// StateHandle XFRM State 的增删操作，*netlink.Handle 满足该接口
type StateHandle interface {
	XfrmStateAdd(state *netlink.XfrmState) error
	XfrmStateDel(state *netlink.XfrmState) error
}

// pkgHandle 使用 netlink 包级函数 (当前网络命名空间)
type pkgHandle struct{}

func (pkgHandle) XfrmStateAdd(state *netlink.XfrmState) error { return netlink.XfrmStateAdd(state) }
func (pkgHandle) XfrmStateDel(state *netlink.XfrmState) error { return netlink.XfrmStateDel(state) }

// XFRMManager 把派生出的 Child SA 密钥下发到 Linux XFRM
type XFRMManager struct {
	h StateHandle
	// undos 记录所有创建操作的回滚函数
	undos []func() error
}

// NewXFRMManager 创建 XFRM 管理器
func NewXFRMManager() *XFRMManager {
	return &XFRMManager{h: pkgHandle{}}
}

// NewXFRMManagerWithHandle 使用指定的 netlink 句柄 (如其他网络命名空间)
func NewXFRMManagerWithHandle(h StateHandle) *XFRMManager {
	return &XFRMManager{h: h}
}

// XFRMSAConfig XFRM Security Association 配置
type XFRMSAConfig struct {
	Src   net.IP
	Dst   net.IP
	SPI   uint32
	Proto netlink.Proto // 通常为 XFRM_PROTO_ESP

	// 算法配置 (AEAD 和 Crypt/Auth 互斥)
	IsAEAD bool

	// AEAD 模式 (如 AES-GCM)
	AeadAlgoName string
	AeadKey      []byte // encKey + salt
	AeadICVLen   int    // ICV 位数 (如 128)

	// 非 AEAD 模式 (如 AES-CBC + HMAC)
	CryptAlgoName string
	CryptKey      []byte
	AuthAlgoName  string
	AuthKey       []byte
	AuthTruncLen  int // 截断位数 (如 128)

	Mode netlink.Mode

	// SA 生命周期（秒）
	TimeLimitSoft uint64
	TimeLimitHard uint64

	// 抗重放窗口大小（0 = 使用默认值 32）
	ReplayWindow int
	ESN          bool
}

// ChildSAParams 由一次 Child SA 协商结果生成一对 XFRM SA 所需的参数
type ChildSAParams struct {
	Role          ikev2.Role // 本端角色
	Local, Remote net.IP
	SPIOut        uint32 // 对端分配的 SPI，本端发送时使用
	SPIIn         uint32 // 本端分配的 SPI
	EncrID        uint16
	EncrKeyBits   int
	Integ         *crypto.IntegDesc // AEAD 时为 nil 或 INTEG_NONE
	Keys          *ikev2.ChildSAKeys
	Mode          netlink.Mode
}

// ChildSAConfigs 生成出站与入站 SA 配置
// 发起方发送方向使用 SK_ei/SK_ai，响应方发送方向使用 SK_er/SK_ar
func ChildSAConfigs(p ChildSAParams) (out, in XFRMSAConfig, err error) {
	if p.Keys == nil {
		return out, in, fmt.Errorf("缺少 Child SA 密钥")
	}

	sendEnc, sendInteg := p.Keys.SK_ei, p.Keys.SK_ai
	recvEnc, recvInteg := p.Keys.SK_er, p.Keys.SK_ar
	if p.Role == ikev2.RoleResponder {
		sendEnc, recvEnc = recvEnc, sendEnc
		sendInteg, recvInteg = recvInteg, sendInteg
	} else if p.Role != ikev2.RoleInitiator {
		return out, in, fmt.Errorf("无效角色 %s", p.Role)
	}

	out = XFRMSAConfig{Src: p.Local, Dst: p.Remote, SPI: p.SPIOut, Proto: netlink.XFRM_PROTO_ESP, Mode: p.Mode}
	in = XFRMSAConfig{Src: p.Remote, Dst: p.Local, SPI: p.SPIIn, Proto: netlink.XFRM_PROTO_ESP, Mode: p.Mode}
	if err = fillAlgos(&out, p, sendEnc, sendInteg); err != nil {
		return XFRMSAConfig{}, XFRMSAConfig{}, err
	}
	if err = fillAlgos(&in, p, recvEnc, recvInteg); err != nil {
		return XFRMSAConfig{}, XFRMSAConfig{}, err
	}
	return out, in, nil
}

func fillAlgos(cfg *XFRMSAConfig, p ChildSAParams, enc, integ *crypto.SymKey) error {
	if IsAEADAlgorithm(p.EncrID) {
		a, err := IKEv2AlgToXFRMAead(p.EncrID, p.EncrKeyBits)
		if err != nil {
			return err
		}
		if enc.Len() != a.KeyLen() {
			return fmt.Errorf("%s 密钥长度 %d，应为 %d", a.Name, enc.Len(), a.KeyLen())
		}
		cfg.IsAEAD = true
		cfg.AeadAlgoName = a.Name
		cfg.AeadKey = enc.Extract()
		cfg.AeadICVLen = a.ICVBits
		return nil
	}

	c, err := IKEv2AlgToXFRMCrypt(p.EncrID, p.EncrKeyBits)
	if err != nil {
		return err
	}
	if enc.Len() != c.KeyLen() {
		return fmt.Errorf("%s 密钥长度 %d，应为 %d", c.Name, enc.Len(), c.KeyLen())
	}
	a, err := IKEv2AlgToXFRMAuth(p.Integ)
	if err != nil {
		return err
	}
	if integ == nil || integ.Len()*8 != a.KeyBits {
		return fmt.Errorf("%s 完整性密钥长度不符", a.Name)
	}
	cfg.CryptAlgoName = c.Name
	cfg.CryptKey = enc.Extract()
	cfg.AuthAlgoName = a.Name
	cfg.AuthKey = integ.Extract()
	cfg.AuthTruncLen = a.TruncateBits
	return nil
}

// BuildXfrmState 根据配置构建 netlink.XfrmState 对象
func BuildXfrmState(cfg XFRMSAConfig) *netlink.XfrmState {
	replayWindow := cfg.ReplayWindow
	if replayWindow <= 0 {
		replayWindow = 32
	}
	state := &netlink.XfrmState{
		Src:          cfg.Src,
		Dst:          cfg.Dst,
		Proto:        cfg.Proto,
		Mode:         cfg.Mode,
		Spi:          int(cfg.SPI),
		ReplayWindow: replayWindow,
		// tunnel mode SA 需要设置 XFRM_STATE_AF_UNSPEC，允许处理任意地址族的流量
		AFUnspec: cfg.Mode == netlink.XFRM_MODE_TUNNEL,
		ESN:      cfg.ESN,
		Limits: netlink.XfrmStateLimits{
			TimeSoft: cfg.TimeLimitSoft,
			TimeHard: cfg.TimeLimitHard,
		},
	}

	if cfg.IsAEAD {
		state.Aead = &netlink.XfrmStateAlgo{
			Name:   cfg.AeadAlgoName,
			Key:    cfg.AeadKey,
			ICVLen: cfg.AeadICVLen,
		}
		return state
	}
	if cfg.CryptAlgoName != "" {
		state.Crypt = &netlink.XfrmStateAlgo{
			Name: cfg.CryptAlgoName,
			Key:  cfg.CryptKey,
		}
	}
	if cfg.AuthAlgoName != "" {
		state.Auth = &netlink.XfrmStateAlgo{
			Name:        cfg.AuthAlgoName,
			Key:         cfg.AuthKey,
			TruncateLen: cfg.AuthTruncLen,
		}
	}
	return state
}

// AddSA 添加 XFRM Security Association
func (x *XFRMManager) AddSA(cfg XFRMSAConfig) error {
	if err := x.h.XfrmStateAdd(BuildXfrmState(cfg)); err != nil {
		return fmt.Errorf("添加 XFRM SA (spi=0x%x src=%v dst=%v) 失败: %w",
			cfg.SPI, cfg.Src, cfg.Dst, err)
	}

	x.undos = append(x.undos, func() error {
		return x.DelSA(cfg.SPI, cfg.Src, cfg.Dst, cfg.Proto)
	})
	return nil
}

// DelSA 删除 XFRM SA（幂等：SA 不存在时静默返回 nil）
func (x *XFRMManager) DelSA(spi uint32, src, dst net.IP, proto netlink.Proto) error {
	state := &netlink.XfrmState{
		Src:   src,
		Dst:   dst,
		Proto: proto,
		Spi:   int(spi),
	}
	if err := x.h.XfrmStateDel(state); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return fmt.Errorf("删除 XFRM SA (spi=0x%x) 失败: %w", spi, err)
	}
	return nil
}

// Rollback 逆序撤销所有已添加的 SA，汇总全部错误
func (x *XFRMManager) Rollback() error {
	var err error
	for i := len(x.undos) - 1; i >= 0; i-- {
		err = multierr.Append(err, x.undos[i]())
	}
	x.undos = nil
	return err
}

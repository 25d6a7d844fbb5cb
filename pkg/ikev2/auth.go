package ikev2

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/iniwex5/ikekeys/pkg/crypto"
	"github.com/iniwex5/ikekeys/pkg/logger"
)

// RFC 7296 2.15
const keyPad = "Key Pad for IKEv2"

// Role 本端在 IKE SA 中的角色
type Role uint8

const (
	RoleInitiator Role = iota + 1
	RoleResponder
)

func (r Role) String() string {
	switch r {
	case RoleInitiator:
		return "initiator"
	case RoleResponder:
		return "responder"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Opposite 对端角色
func (r Role) Opposite() Role {
	switch r {
	case RoleInitiator:
		return RoleResponder
	case RoleResponder:
		return RoleInitiator
	}
	panic(fmt.Sprintf("ikev2: 无效角色 %d", uint8(r)))
}

// Perspective Local 表示计算本端要发送的 AUTH，Remote 表示校验对端的 AUTH
type Perspective uint8

const (
	Local Perspective = iota + 1
	Remote
)

func (p Perspective) String() string {
	switch p {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return fmt.Sprintf("Perspective(%d)", uint8(p))
	}
}

// AuthBy 共享密钥类认证方式
type AuthBy uint8

const (
	AuthByPSK  AuthBy = iota + 1
	AuthByNull        // RFC 7619
)

func (a AuthBy) String() string {
	switch a {
	case AuthByPSK:
		return "secret"
	case AuthByNull:
		return "null"
	default:
		return fmt.Sprintf("AuthBy(%d)", uint8(a))
	}
}

// Method AUTH 载荷中的认证方法
func (a AuthBy) Method() AuthMethod {
	switch a {
	case AuthByPSK:
		return AuthMethodSharedKey
	case AuthByNull:
		return AuthMethodNull
	}
	panic(fmt.Sprintf("ikev2: 无效认证方式 %d", uint8(a)))
}

// Intermediate RFC 9242 IKE_INTERMEDIATE 交换的认证附加数据
type Intermediate struct {
	Transcript []byte // IntAuth_iN | IntAuth_rN
	MessageID  uint32 // IKE_AUTH 请求的消息 ID
}

// AuthState 由会话状态提供的认证输入
type AuthState struct {
	Connection string
	Role       Role
	AuthBy     AuthBy
	PRF        *crypto.PRFDesc

	PSK   []byte         // AuthByPSK: 配置的共享密钥
	SK_pi *crypto.SymKey // AuthByNull: 发起方 AUTH 使用的密钥
	SK_pr *crypto.SymKey // AuthByNull: 响应方 AUTH 使用的密钥

	Ni []byte
	Nr []byte

	FirstPacketSent     []byte // 本端发送的 IKE_SA_INIT 消息
	FirstPacketReceived []byte // 收到的 IKE_SA_INIT 消息

	Intermediate *Intermediate
}

// signerIsInitiator 由角色和视角判断被签名的 AUTH 出自哪一方
func signerIsInitiator(role Role, p Perspective) bool {
	switch {
	case role == RoleInitiator && p == Local, role == RoleResponder && p == Remote:
		return true
	case role == RoleInitiator && p == Remote, role == RoleResponder && p == Local:
		return false
	}
	panic(fmt.Sprintf("ikev2: 无效的角色/视角组合 %s/%s", role, p))
}

// IDHashKey 返回计算 prf(SK_px, IDx') 的密钥: 发起方的 AUTH 用 SK_pi，响应方的用 SK_pr
func IDHashKey(role Role, p Perspective, keys *IKESAKeys) *crypto.SymKey {
	if signerIsInitiator(role, p) {
		return keys.SK_pi
	}
	return keys.SK_pr
}

// IDHash prf(SK_px, IDx')，idBody 为不含通用头部的 ID 载荷
func IDHash(prf *crypto.PRFDesc, skp *crypto.SymKey, idBody []byte) (crypto.Mac, error) {
	p, err := crypto.NewPRFWithKey("prf(SK_px, IDx')", prf, "SK_px", skp)
	if err != nil {
		return crypto.Mac{}, err
	}
	p.UpdateBytes("IDx'", idBody)
	return p.FinalMac(nil), nil
}

// PSKAuth AUTH = prf(prf(Shared Secret, "Key Pad for IKEv2"), <SignedOctets>)
// SignedOctets = FirstPacket | Nonce | prf(SK_px, IDx') [| IntAuth | IKE_AUTH_MID]
func PSKAuth(prf *crypto.PRFDesc, pss *crypto.SymKey, firstPacket, nonce []byte, idHash crypto.Mac, im *Intermediate) (crypto.Mac, error) {
	if idHash.Len() != prf.OutputSize {
		panic(fmt.Sprintf("ikev2: ID 哈希长度 %d 与 PRF %s 输出长度 %d 不符", idHash.Len(), prf.Name, prf.OutputSize))
	}

	// 内层 prf
	inner, err := crypto.NewPRFWithKey("<prf-psk> = prf(<psk>,\"Key Pad for IKEv2\")", prf, "shared secret", pss)
	if err != nil {
		return crypto.Mac{}, fmt.Errorf("%w: %v", ErrPRFInit, err)
	}
	inner.UpdateBytes("Key Pad", []byte(keyPad))
	prfPSK := inner.FinalKey()
	defer prfPSK.Release()

	// 外层 prf
	outer, err := crypto.NewPRFWithKey("<signed-octets> = prf(<prf-psk>, <msg octets>)", prf, "<prf-psk>", prfPSK)
	if err != nil {
		return crypto.Mac{}, fmt.Errorf("%w: %v", ErrPRFInit, err)
	}
	outer.UpdateBytes("first-packet", firstPacket)
	outer.UpdateBytes("nonce", nonce)
	outer.UpdateBytes("hash", idHash.Bytes())
	if im != nil {
		var mid [4]byte
		binary.BigEndian.PutUint32(mid[:], im.MessageID)
		outer.UpdateBytes("IntAuth", im.Transcript)
		outer.UpdateBytes("IKE_AUTH_MID", mid[:])
	}
	return outer.FinalMac(nil), nil
}

// Authenticator 计算与校验 PSK / NULL 认证的 AUTH
type Authenticator struct {
	Logger *zap.Logger
	FIPS   func() bool
}

// NewAuthenticator log 为 nil 时使用全局 Logger
func NewAuthenticator(log *zap.Logger) *Authenticator {
	if log == nil {
		log = logger.Named("auth")
	}
	return &Authenticator{Logger: log, FIPS: crypto.FIPSMode}
}

func (a *Authenticator) fips() bool {
	return a.FIPS != nil && a.FIPS()
}

// sharedSecret 选出本次计算使用的共享密钥，返回的句柄由调用方释放
func (a *Authenticator) sharedSecret(st *AuthState, p Perspective) (*crypto.SymKey, error) {
	switch st.AuthBy {
	case AuthByPSK:
		if len(st.PSK) == 0 {
			a.Logger.Warn("没有匹配的 PSK", logger.String("connection", st.Connection))
			return nil, authError(st.Connection, ErrNoPSK, "没有匹配的 PSK")
		}
		required := crypto.FIPSKeySizeMin(st.PRF)
		if len(st.PSK) < required {
			fields := []zap.Field{
				logger.String("connection", st.Connection),
				logger.Int("psk-len", len(st.PSK)),
				logger.String("prf", st.PRF.Name),
				logger.Int("required", required),
			}
			if a.fips() {
				a.Logger.Error("FIPS: PSK 长度不足", fields...)
				return nil, authError(st.Connection, ErrPSKTooShort,
					"PSK 长度 %d 字节，FIPS 模式下 %s 至少需要 %d 字节", len(st.PSK), st.PRF.Name, required)
			}
			a.Logger.Warn("PSK 长度低于 FIPS 要求", fields...)
		}
		return crypto.NewSymKey("PSK", st.PSK), nil

	case AuthByNull:
		// RFC 7619: SK_pi 和 SK_pr 分别作为发起方、响应方 AUTH 的共享密钥
		key, name := st.SK_pr, "SK_pr"
		if signerIsInitiator(st.Role, p) {
			key, name = st.SK_pi, "SK_pi"
		}
		if key == nil || key.Len() == 0 {
			return nil, authError(st.Connection, ErrNoPSK, "NULL 认证缺少 %s", name)
		}
		return key.Clone(name), nil
	}
	panic(fmt.Sprintf("ikev2: 无效认证方式 %d", uint8(st.AuthBy)))
}

// nonce 发起方的 AUTH 覆盖 Nr，响应方的 AUTH 覆盖 Ni
func (st *AuthState) nonce(p Perspective) ([]byte, string) {
	if signerIsInitiator(st.Role, p) {
		return mustNonce("Nr", st.Nr), "Nr"
	}
	return mustNonce("Ni", st.Ni), "Ni"
}

func (a *Authenticator) signedOctets(st *AuthState, p Perspective, firstPacket []byte, idHash crypto.Mac) (crypto.Mac, error) {
	if st.PRF == nil {
		panic("ikev2: 未协商 PRF")
	}
	// 先校验组合，避免对无效输入做任何计算
	signerIsInitiator(st.Role, p)

	pss, err := a.sharedSecret(st, p)
	if err != nil {
		return crypto.Mac{}, err
	}
	defer pss.Release()

	nonce, nonceName := st.nonce(p)
	a.Logger.Debug("计算 PSK AUTH",
		logger.String("connection", st.Connection),
		logger.String("role", st.Role.String()),
		logger.String("perspective", p.String()),
		logger.String("authby", st.AuthBy.String()),
		logger.String("nonce", nonceName),
		logger.Int("first-packet-len", len(firstPacket)),
		logger.Bool("intermediate", st.Intermediate != nil))

	auth, err := PSKAuth(st.PRF, pss, firstPacket, nonce, idHash, st.Intermediate)
	if err != nil {
		if a.fips() {
			panic(fmt.Sprintf("FIPS: 创建 %s PRF 上下文失败: %v", st.PRF.Name, err))
		}
		a.Logger.Error("创建 PRF 上下文失败", logger.String("prf", st.PRF.Name), logger.Err(err))
		return crypto.Mac{}, authError(st.Connection, ErrPRFInit, "创建 %s PRF 上下文失败: %v", st.PRF.Name, err)
	}
	return auth, nil
}

// Sign 计算本端 AUTH (Local 视角，使用本端发送的第一个消息)
func (a *Authenticator) Sign(st *AuthState, idHash crypto.Mac) (crypto.Mac, error) {
	return a.signedOctets(st, Local, st.FirstPacketSent, idHash)
}

// Verify 校验对端 AUTH (Remote 视角，使用收到的第一个消息)
func (a *Authenticator) Verify(st *AuthState, idHash crypto.Mac, received []byte) error {
	if st.PRF == nil {
		panic("ikev2: 未协商 PRF")
	}
	hashLen := st.PRF.OutputSize
	if len(received) != hashLen {
		a.Logger.Warn("AUTH 长度与 PRF 输出长度不符",
			logger.String("connection", st.Connection),
			logger.String("prf", st.PRF.Name),
			logger.Int("received", len(received)),
			logger.Int("expected", hashLen))
		return authError(st.Connection, ErrAuthLength, "AUTH 长度 %d 与 PRF %s 输出长度 %d 不符", len(received), st.PRF.Name, hashLen)
	}

	calc, err := a.signedOctets(st, Remote, st.FirstPacketReceived, idHash)
	if err != nil {
		return err
	}

	if !calc.Equal(received) {
		a.Logger.Warn("AUTH 不匹配: 收到的 AUTH != 计算的 AUTH", logger.String("connection", st.Connection))
		return authError(st.Connection, ErrAuthMismatch, "收到的 AUTH 与计算结果不一致")
	}
	a.Logger.Info("认证成功", logger.String("connection", st.Connection), logger.String("authby", st.AuthBy.String()))
	return nil
}

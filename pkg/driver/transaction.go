package driver

import "go.uber.org/multierr"

// SATxn 一组 SA 的原子下发：任一步失败时撤销已完成的部分
type SATxn struct {
	x     *XFRMManager
	undos []func() error
}

func (x *XFRMManager) Begin() *SATxn {
	return &SATxn{x: x}
}

// Commit 把事务内的回滚函数移交给管理器，后续由 XFRMManager.Rollback 统一清理
func (tx *SATxn) Commit() {
	tx.x.undos = append(tx.x.undos, tx.undos...)
	tx.undos = nil
}

func (tx *SATxn) Rollback() error {
	var err error
	for i := len(tx.undos) - 1; i >= 0; i-- {
		err = multierr.Append(err, tx.undos[i]())
	}
	tx.undos = nil
	return err
}

func (tx *SATxn) AddSA(cfg XFRMSAConfig) error {
	if err := tx.x.h.XfrmStateAdd(BuildXfrmState(cfg)); err != nil {
		return err
	}
	tx.undos = append(tx.undos, func() error {
		return tx.x.DelSA(cfg.SPI, cfg.Src, cfg.Dst, cfg.Proto)
	})
	return nil
}

// InstallChildSA 先入站后出站，保证对端开始发送前入站 SA 已就绪
func (x *XFRMManager) InstallChildSA(out, in XFRMSAConfig) error {
	tx := x.Begin()
	if err := tx.AddSA(in); err != nil {
		return multierr.Append(err, tx.Rollback())
	}
	if err := tx.AddSA(out); err != nil {
		return multierr.Append(err, tx.Rollback())
	}
	tx.Commit()
	return nil
}

// Package model はドメインモデルを定義する。
package model

import "time"

// Admin は管理者の認証情報レコードを表す。
// パスワードはbcryptハッシュとしてのみ保持する。
type Admin struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity はAdminから認証情報を除いた識別情報を返す。
func (a *Admin) Identity() AdminIdentity {
	return AdminIdentity{
		ID:    a.ID,
		Email: a.Email,
		Name:  a.Name,
	}
}

// AdminIdentity は認証済み管理者の識別情報を表す。
// 認証成功時に1度だけ生成され、セッショントークンに埋め込まれる。変更しない。
type AdminIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Valid は識別情報が構造的に有効か（IDとEmailが空でないか）を判定する。
func (i AdminIdentity) Valid() bool {
	return i.ID != "" && i.Email != ""
}

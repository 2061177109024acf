package contracts

import "context"

// DatasetLoader obtains the audited dataset (A0)
// ⭐ SSOT: 데이터 소스(CSV, PostgreSQL)는 이 인터페이스 뒤에 숨김
type DatasetLoader interface {
	Load(ctx context.Context) (*Dataset, error)
}

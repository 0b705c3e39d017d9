package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/flowpool/internal/model"
)

// PostgresRegistrationRepo はPostgreSQLを使用した登録レコードリポジトリ。
type PostgresRegistrationRepo struct {
	db *sql.DB
}

// NewPostgresRegistrationRepo はPostgresRegistrationRepoを生成する。
func NewPostgresRegistrationRepo(db *sql.DB) *PostgresRegistrationRepo {
	return &PostgresRegistrationRepo{db: db}
}

// FindLatestByUserID は指定ユーザーの最新の登録レコードを取得する。
// 履歴レコードが複数存在する場合はregistered_atが最新のものを正とする。
// 見つからない場合はnilを返す。
func (r *PostgresRegistrationRepo) FindLatestByUserID(ctx context.Context, userID string) (*model.Registration, error) {
	reg := &model.Registration{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, username, email, email_code, status, registered_at, expires_at
		 FROM registrations
		 WHERE user_id = $1
		 ORDER BY registered_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&reg.ID, &reg.UserID, &reg.Username, &reg.Email, &reg.EmailCode,
		&reg.Status, &reg.RegisteredAt, &reg.ExpiresAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("登録レコードの取得に失敗しました: %w", err)
	}

	return reg, nil
}

// Create は登録レコードを作成する。
func (r *PostgresRegistrationRepo) Create(ctx context.Context, reg *model.Registration) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO registrations (id, user_id, username, email, email_code, status, registered_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		reg.ID, reg.UserID, reg.Username, reg.Email, reg.EmailCode,
		reg.Status, reg.RegisteredAt, reg.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("登録レコードの作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateEmailCode は指定登録レコードのemail_codeを更新する。
// codeがnilの場合はNULL（割り当て解除）を書き込む。
// username/email/expires_atは初回作成時の値を維持する。
func (r *PostgresRegistrationRepo) UpdateEmailCode(ctx context.Context, id string, code *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET email_code = $2 WHERE id = $1`,
		id, code,
	)
	if err != nil {
		return fmt.Errorf("登録レコードのemail_code更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("registration not found: %s", id)
	}
	return nil
}

// ListExpiredAssigned は有効期限切れかつemail_codeが設定されたままの
// 登録レコードをexpires_at昇順で最大limit件返す。
func (r *PostgresRegistrationRepo) ListExpiredAssigned(ctx context.Context, now time.Time, limit int) ([]*model.Registration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, username, email, email_code, status, registered_at, expires_at
		 FROM registrations
		 WHERE email_code IS NOT NULL AND expires_at < $1
		 ORDER BY expires_at ASC
		 LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("期限切れ登録レコードの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var regs []*model.Registration
	for rows.Next() {
		reg := &model.Registration{}
		if err := rows.Scan(&reg.ID, &reg.UserID, &reg.Username, &reg.Email, &reg.EmailCode,
			&reg.Status, &reg.RegisteredAt, &reg.ExpiresAt); err != nil {
			return nil, fmt.Errorf("登録レコード行の読み取りに失敗しました: %w", err)
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("期限切れ登録レコードの走査に失敗しました: %w", err)
	}
	return regs, nil
}

// compile-time interface check
var _ RegistrationRepository = (*PostgresRegistrationRepo)(nil)

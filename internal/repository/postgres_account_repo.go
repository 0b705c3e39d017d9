package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/flowpool/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したフローアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

const accountColumns = `id, code, email, password, capacity, occupancy, status, created_at, updated_at`

// scanAccount は1行からAccountを読み取る。
func scanAccount(row *sql.Row) (*model.Account, error) {
	a := &model.Account{}
	err := row.Scan(&a.ID, &a.Code, &a.Email, &a.Password,
		&a.Capacity, &a.Occupancy, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	return account, nil
}

// FindByCode は指定コードのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByCode(ctx context.Context, code string) (*model.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE code = $1`,
		code,
	))
	if err != nil {
		return nil, fmt.Errorf("コードによるアカウントの検索に失敗しました: %w", err)
	}
	return account, nil
}

// FindByEmail は指定メールアドレスのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`,
		email,
	))
	if err != nil {
		return nil, fmt.Errorf("メールアドレスによるアカウントの検索に失敗しました: %w", err)
	}
	return account, nil
}

// FindLeastOccupied はアクティブかつ空きのあるアカウントのうち、
// occupancyが最小のものを返す（同数の場合はcode昇順で先頭）。
// 該当がない場合はnilを返す。
func (r *PostgresAccountRepo) FindLeastOccupied(ctx context.Context) (*model.Account, error) {
	account, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE status = 'active' AND occupancy < capacity
		 ORDER BY occupancy ASC, code ASC
		 LIMIT 1`,
	))
	if err != nil {
		return nil, fmt.Errorf("空きアカウントの検索に失敗しました: %w", err)
	}
	return account, nil
}

// List は全アカウントをcreated_at降順で返す。
func (r *PostgresAccountRepo) List(ctx context.Context) ([]*model.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("アカウント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		a := &model.Account{}
		if err := rows.Scan(&a.ID, &a.Code, &a.Email, &a.Password,
			&a.Capacity, &a.Occupancy, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("アカウント行の読み取りに失敗しました: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("アカウント一覧の走査に失敗しました: %w", err)
	}
	return accounts, nil
}

// Create はアカウントを作成する。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, code, email, password, capacity, occupancy, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		account.ID, account.Code, account.Email, account.Password,
		account.Capacity, account.Occupancy, account.Status,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}
	return nil
}

// Update はアカウントのemail、password、statusを更新する。
// occupancyはAcquireSlot/ReleaseSlotのみが更新するため、この操作では変更しない。
func (r *PostgresAccountRepo) Update(ctx context.Context, account *model.Account) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET email = $2, password = $3, status = $4, updated_at = now()
		 WHERE id = $1`,
		account.ID, account.Email, account.Password, account.Status,
	)
	if err != nil {
		return fmt.Errorf("アカウントの更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account not found: %s", account.ID)
	}
	return nil
}

// Delete は指定IDのアカウントを削除する。
func (r *PostgresAccountRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("アカウントの削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account not found: %s", id)
	}
	return nil
}

// AcquireSlot はoccupancyを条件付きで1増加させる。
// 容量チェックと増加を単一のUPDATE文で行うため、事前に読んだoccupancyが
// 他の呼び出しで変化していても上限を超過することはない。
// 条件を満たさない場合は何も変更せずfalseを返す。
func (r *PostgresAccountRepo) AcquireSlot(ctx context.Context, code string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET occupancy = occupancy + 1, updated_at = now()
		 WHERE code = $1 AND status = 'active' AND occupancy < capacity`,
		code,
	)
	if err != nil {
		return false, fmt.Errorf("スロットの確保に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新件数の取得に失敗しました: %w", err)
	}
	return rowsAffected == 1, nil
}

// ReleaseSlot はoccupancyを1減少させる。
// occupancy > 0 の条件付きUPDATEのため0未満には決してならない。
// 該当行がない場合（存在しない・非アクティブ・既に0）は何もせず成功を返す。
func (r *PostgresAccountRepo) ReleaseSlot(ctx context.Context, code string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET occupancy = occupancy - 1, updated_at = now()
		 WHERE code = $1 AND status = 'active' AND occupancy > 0`,
		code,
	)
	if err != nil {
		return fmt.Errorf("スロットの解放に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)

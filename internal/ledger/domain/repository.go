package domain

import (
	"context"

	"gorm.io/gorm"
)

// AccountRepository 定义账户仓储接口
// 这是一个 Port (端口)，Adapter (适配器) 将在基础设施层实现它
type AccountRepository interface {
	// FindByID 根据ID查询账户
	FindByID(ctx context.Context, id int64) (*Account, error)

	// FindByName 根据账户名称查询（流水的 Method 字段按名称引用账户）
	FindByName(ctx context.Context, name string) (*Account, error)

	// List 查询全部账户
	List(ctx context.Context) ([]Account, error)

	// Create 新建账户
	Create(ctx context.Context, tx *gorm.DB, acc *Account) error

	// Update 带乐观锁版本号更新 name/group
	// 版本不匹配时返回 Conflict
	Update(ctx context.Context, tx *gorm.DB, acc *Account) error

	// Delete 硬删除（调用方必须先确认没有未删除的流水引用该账户）
	Delete(ctx context.Context, tx *gorm.DB, id int64) error
}

// TransactionRepository 定义流水仓储接口
type TransactionRepository interface {
	// FindByID 根据ID查询流水（含软删除的行）
	FindByID(ctx context.Context, id int64) (*Transaction, error)

	// ListActive 查询全部未软删除的流水
	ListActive(ctx context.Context) ([]Transaction, error)

	// ListActiveByMethod 查询引用指定账户名的未软删除流水
	ListActiveByMethod(ctx context.Context, method string) ([]Transaction, error)

	// ListDeleted 查询软删除的流水（"回收站"视图）
	ListDeleted(ctx context.Context) ([]Transaction, error)

	// CountActiveByMethod 统计引用指定账户名的未软删除流水数
	// 删除账户前的守卫计数，必须和删除共用同一事务
	CountActiveByMethod(ctx context.Context, tx *gorm.DB, method string) (int64, error)

	// Create 追加一条流水
	Create(ctx context.Context, tx *gorm.DB, t *Transaction) error

	// Update 修正流水（金额/分类/日期的编辑）
	// 流水不带版本号，覆盖写按最后提交为准
	Update(ctx context.Context, tx *gorm.DB, t *Transaction) error
}

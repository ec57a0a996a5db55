package shortcode

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"shortmark/internal/apperrors"
)

// MaxAttempts 随机生成短码的总尝试次数上限（含落库时的唯一约束冲突）
const MaxAttempts = 100

// ErrCodeConflict 由 CreateFunc 返回，表示存储层唯一约束拒绝了该短码
var ErrCodeConflict = errors.New("short code violates unique constraint")

// CodeGenerator 短码生成接口
type CodeGenerator interface {
	Generate() (string, error)
}

// CodeLookup 查询短码是否已被占用
type CodeLookup interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// CreateFunc persists a new short link under code. It returns an error
// wrapping ErrCodeConflict when the storage unique index on code rejects
// the write.
type CreateFunc func(ctx context.Context, code string) error

// Allocator 为新短链分配唯一短码
type Allocator struct {
	lookup      CodeLookup
	generator   CodeGenerator
	maxAttempts int
	logger      *zap.Logger
}

func NewAllocator(lookup CodeLookup, generator CodeGenerator, logger *zap.Logger) *Allocator {
	if generator == nil {
		generator = NewGenerator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Allocator{
		lookup:      lookup,
		generator:   generator,
		maxAttempts: MaxAttempts,
		logger:      logger,
	}
}

// Allocate returns requested when it is free, or a fresh random code when
// requested is empty. Nothing is persisted; callers that need the
// uniqueness guarantee under concurrency must use Reserve.
func (a *Allocator) Allocate(ctx context.Context, requested string) (string, error) {
	return a.Reserve(ctx, requested, nil)
}

// Reserve allocates a code and persists it through create.
//
// A requested code is returned unchanged or rejected with CodeAlreadyTaken,
// whether the collision is seen by the lookup or by the storage constraint.
// Generated codes are retried on either kind of collision until
// maxAttempts codes have been drawn, then AllocationExhausted.
func (a *Allocator) Reserve(ctx context.Context, requested string, create CreateFunc) (string, error) {
	if requested != "" {
		return a.reserveRequested(ctx, requested, create)
	}

	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", apperrors.SystemError(err)
		}

		code, err := a.generator.Generate()
		if err != nil {
			a.logger.Error("Failed to generate short code", zap.Error(err))
			return "", apperrors.SystemError(err)
		}

		taken, err := a.lookup.ExistsByCode(ctx, code)
		if err != nil {
			return "", storageError(err)
		}
		if taken {
			a.logger.Debug("Generated short code collides",
				zap.String("short_code", code),
				zap.Int("attempt", attempt))
			continue
		}

		if create == nil {
			return code, nil
		}
		err = create(ctx, code)
		if err == nil {
			return code, nil
		}
		if errors.Is(err, ErrCodeConflict) {
			a.logger.Info("Short code taken concurrently, retrying",
				zap.String("short_code", code),
				zap.Int("attempt", attempt))
			continue
		}
		return "", storageError(err)
	}

	a.logger.Error("Short code allocation exhausted", zap.Int("attempts", a.maxAttempts))
	return "", apperrors.AllocationExhausted()
}

func (a *Allocator) reserveRequested(ctx context.Context, code string, create CreateFunc) (string, error) {
	taken, err := a.lookup.ExistsByCode(ctx, code)
	if err != nil {
		return "", storageError(err)
	}
	if taken {
		return "", apperrors.CodeAlreadyTaken()
	}

	if create == nil {
		return code, nil
	}
	if err := create(ctx, code); err != nil {
		if errors.Is(err, ErrCodeConflict) {
			return "", apperrors.CodeAlreadyTaken()
		}
		return "", storageError(err)
	}
	return code, nil
}

// storageError 保留已分类的错误，其余一律视为存储层故障
func storageError(err error) error {
	if _, ok := apperrors.KindOf(err); ok {
		return err
	}
	return apperrors.SystemError(err)
}

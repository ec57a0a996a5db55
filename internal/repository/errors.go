package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey 违反唯一约束
	ErrDuplicateKey = errors.New("unique constraint violation")

	// ErrDuplicateCode 短码唯一索引冲突
	ErrDuplicateCode = fmt.Errorf("short link code: %w", ErrDuplicateKey)

	// ErrDuplicateBookmark 同一书签已关联其他短链
	ErrDuplicateBookmark = fmt.Errorf("short link bookmark: %w", ErrDuplicateKey)
)

const (
	mysqlDuplicateEntry   = 1062
	postgresUniqueViolate = "23505"
)

// IsUniqueViolation 识别各数据库驱动的唯一约束错误
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicateKey) {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == postgresUniqueViolate
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// violatedColumn 尽力从错误信息中找出冲突的列（或索引名中包含的列名）
func violatedColumn(err error, columns ...string) string {
	text := err.Error()
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		text += " " + pgErr.ConstraintName
	}
	for _, c := range columns {
		if strings.Contains(text, c) {
			return c
		}
	}
	return ""
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

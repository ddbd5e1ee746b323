package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// relation описывает денормализованное поле ответа, взятое из связанной таблицы:
// author_name у постов и комментариев, blog_post_title у комментариев.
type relation struct {
	table  string // связанная таблица
	alias  string // алиас таблицы в JOIN
	column string // колонка связанной таблицы
	label  string // имя поля в ответе
	fk     string // внешний ключ в основной таблице
}

var (
	postAuthor    = relation{table: "users", alias: "author", column: "name", label: "author_name", fk: "blog_posts.user_id"}
	commentAuthor = relation{table: "users", alias: "author", column: "name", label: "author_name", fk: "comments.user_id"}
	commentPost   = relation{table: "blog_posts", alias: "post", column: "title", label: "blog_post_title", fk: "comments.blog_post_id"}
)

// LEFT JOIN, чтобы запись не пропадала из выдачи, если связанной строки уже нет.
func (r relation) join() string {
	return fmt.Sprintf("LEFT JOIN %s AS %s ON %s.id = %s", r.table, r.alias, r.alias, r.fk)
}

func (r relation) selectExpr() string {
	return fmt.Sprintf("%s.%s AS %s", r.alias, r.column, r.label)
}

// withLabels - scope для чтения: все колонки base плюс поля из связей.
func withLabels(base string, rels ...relation) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		cols := make([]string, 0, len(rels)+1)
		cols = append(cols, base+".*")
		for _, r := range rels {
			db = db.Joins(r.join())
			cols = append(cols, r.selectExpr())
		}
		return db.Select(strings.Join(cols, ", "))
	}
}

// lookup - точечное чтение поля связанной записи для ответов на запись.
// Возвращает nil без ошибки, если связанной записи уже нет.
func (r relation) lookup(ctx context.Context, db *gorm.DB, id uint) (*string, error) {
	var values []string
	err := db.WithContext(ctx).
		Table(r.table).
		Where("id = ?", id).
		Limit(1).
		Pluck(r.column, &values).Error
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return &values[0], nil
}

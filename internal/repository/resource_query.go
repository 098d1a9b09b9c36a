package repository

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"jsr_backend/internal/model"
	"jsr_backend/internal/util"
	"jsr_backend/pkg/database"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResourceFilter 调用方固定的基础条件，请求参数不能覆盖
type ResourceFilter struct {
	Status      model.ResourceStatus
	CreatedBy   string
	PricingType model.PricingType
}

// ResourceQueryParams 原始查询参数，均为字符串
type ResourceQueryParams struct {
	Category    string
	Type        string
	Difficulty  string
	PricingType string
	Status      string
	Search      string
	Page        string
	Limit       string
}

// QueryLimits 分页与检索的限制
type QueryLimits struct {
	DefaultLimit     int
	MaxLimit         int
	MinTextSearchLen int
}

var DefaultQueryLimits = QueryLimits{DefaultLimit: 12, MaxLimit: 100, MinTextSearchLen: 3}

type SearchMode int

const (
	SearchNone SearchMode = iota
	// SearchSubstring 短关键词：name/description/tags 不区分大小写子串匹配
	SearchSubstring
	// SearchText 关键词长度达到阈值：全文检索并按相关度排序
	SearchText
)

// ResourceQuery 由基础条件与请求参数合成的查询，Apply 只生成 WHERE，Order 负责排序
type ResourceQuery struct {
	Base         ResourceFilter
	CategoryID   string
	TypeID       string
	Difficulties []model.Difficulty
	PricingTypes []model.PricingType
	Status       model.ResourceStatus
	Search       string
	SearchMode   SearchMode
	Page         int
	Limit        int
}

func (q *ResourceQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// MaxOffset 偏移量上限，超出的页码视为非法
const MaxOffset = math.MaxInt32

// ValidatePage 页码与每页数量必须为正，且偏移量不超过 MaxOffset
func ValidatePage(page, limit int) error {
	if page < 1 || limit < 1 || page-1 > MaxOffset/limit {
		return util.ErrInvalidPagination
	}
	return nil
}

// splitList 逗号分隔的多值参数，去空去重保持顺序
func splitList(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

func parsePositive(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, util.ErrInvalidPagination
	}
	return n, nil
}

// BuildResourceQuery 校验并合成查询；非法取值返回对应的 AppError
func BuildResourceQuery(base ResourceFilter, params ResourceQueryParams, limits QueryLimits) (*ResourceQuery, error) {
	q := &ResourceQuery{Base: base}

	page, err := parsePositive(params.Page, 1)
	if err != nil {
		return nil, err
	}
	limit, err := parsePositive(params.Limit, limits.DefaultLimit)
	if err != nil {
		return nil, err
	}
	if limit > limits.MaxLimit {
		limit = limits.MaxLimit
	}
	if err := ValidatePage(page, limit); err != nil {
		return nil, err
	}
	q.Page, q.Limit = page, limit

	if c := strings.TrimSpace(params.Category); c != "" {
		if !model.IsUUID(c) {
			return nil, util.ErrInvalidID
		}
		q.CategoryID = c
	}
	if t := strings.TrimSpace(params.Type); t != "" {
		if !model.IsUUID(t) {
			return nil, util.ErrInvalidID
		}
		q.TypeID = t
	}

	for _, d := range splitList(params.Difficulty) {
		diff := model.Difficulty(d)
		if !diff.Valid() {
			return nil, util.ErrInvalidDifficulty
		}
		q.Difficulties = append(q.Difficulties, diff)
	}

	// 基础条件固定了收费类型时忽略请求参数
	if base.PricingType == "" {
		for _, p := range splitList(params.PricingType) {
			pt := model.PricingType(p)
			if !pt.Valid() {
				return nil, util.ErrInvalidPricingType
			}
			q.PricingTypes = append(q.PricingTypes, pt)
		}
	}

	if base.Status == "" {
		if s := strings.ToLower(strings.TrimSpace(params.Status)); s != "" {
			status := model.ResourceStatus(s)
			if !status.Valid() {
				return nil, util.ErrInvalidStatus
			}
			q.Status = status
		}
	}

	if s := strings.TrimSpace(params.Search); s != "" {
		q.Search = s
		if len([]rune(s)) >= limits.MinTextSearchLen {
			q.SearchMode = SearchText
		} else {
			q.SearchMode = SearchSubstring
		}
	}

	return q, nil
}

// Apply 追加过滤条件
func (q *ResourceQuery) Apply(db *gorm.DB) *gorm.DB {
	tx := db

	if q.Base.Status != "" {
		tx = tx.Where("resources.status = ?", q.Base.Status)
	} else if q.Status != "" {
		tx = tx.Where("resources.status = ?", q.Status)
	}
	if q.Base.CreatedBy != "" {
		tx = tx.Where("resources.created_by = ?", q.Base.CreatedBy)
	}
	if q.Base.PricingType != "" {
		tx = tx.Where("resources.pricing_type = ?", q.Base.PricingType)
	} else if len(q.PricingTypes) > 0 {
		tx = tx.Where("resources.pricing_type IN ?", q.PricingTypes)
	}
	if q.CategoryID != "" {
		tx = tx.Where("resources.category_id = ?", q.CategoryID)
	}
	if q.TypeID != "" {
		tx = tx.Where("resources.type_id = ?", q.TypeID)
	}
	if len(q.Difficulties) > 0 {
		tx = tx.Where("resources.difficulty IN ?", q.Difficulties)
	}

	switch q.SearchMode {
	case SearchSubstring:
		tx = applySubstringSearch(tx, q.Search)
	case SearchText:
		terms := searchTerms(q.Search)
		if len(terms) == 0 {
			tx = applySubstringSearch(tx, q.Search)
			break
		}
		tx = textSearchFor(tx).where(tx, terms)
	}
	return tx
}

// Order 排序：全文检索按相关度，其余按创建时间倒序
func (q *ResourceQuery) Order(db *gorm.DB) *gorm.DB {
	if q.SearchMode == SearchText {
		if terms := searchTerms(q.Search); len(terms) > 0 {
			return textSearchFor(db).order(db, terms)
		}
	}
	return db.Order("resources.created_at DESC").Order("resources.id DESC")
}

func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

func applySubstringSearch(tx *gorm.DB, search string) *gorm.DB {
	// tag_text 以换行分隔标签，关键词里的换行换成空格以免跨标签匹配
	like := "%" + escapeLike(strings.ToLower(strings.ReplaceAll(search, "\n", " "))) + "%"
	return tx.Where(
		"(LOWER(resources.name) LIKE ? ESCAPE '!' OR LOWER(resources.description) LIKE ? ESCAPE '!' OR resources.tag_text LIKE ? ESCAPE '!')",
		like, like, like,
	)
}

// searchTerms 拆出字母数字组成的检索词，去掉全文检索语法字符
func searchTerms(search string) []string {
	fields := strings.FieldsFunc(strings.ToLower(search), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool, len(fields))
	terms := fields[:0]
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			terms = append(terms, f)
		}
	}
	return terms
}

// textSearch 不同数据库的全文检索实现
type textSearch interface {
	where(tx *gorm.DB, terms []string) *gorm.DB
	order(tx *gorm.DB, terms []string) *gorm.DB
}

func textSearchFor(db *gorm.DB) textSearch {
	switch db.Dialector.Name() {
	case database.DriverMySQL:
		return mysqlTextSearch{}
	case database.DriverPostgres:
		return postgresTextSearch{}
	}
	return weightedLikeSearch{}
}

// mysqlTextSearch FULLTEXT 索引，BOOLEAN MODE 前缀匹配
type mysqlTextSearch struct{}

const mysqlMatch = "MATCH(resources.name, resources.description, resources.tag_text) AGAINST (? IN BOOLEAN MODE)"

func (mysqlTextSearch) expr(terms []string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t + "*"
	}
	return strings.Join(parts, " ")
}

func (s mysqlTextSearch) where(tx *gorm.DB, terms []string) *gorm.DB {
	return tx.Where(mysqlMatch, s.expr(terms))
}

func (s mysqlTextSearch) order(tx *gorm.DB, terms []string) *gorm.DB {
	return tx.Clauses(clause.OrderBy{Expression: clause.Expr{
		SQL:                mysqlMatch + " DESC, resources.created_at DESC",
		Vars:               []interface{}{s.expr(terms)},
		WithoutParentheses: true,
	}})
}

// postgresTextSearch tsvector 加权（name A, tags B, description C），前缀匹配
type postgresTextSearch struct{}

func (postgresTextSearch) expr(terms []string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t + ":*"
	}
	return strings.Join(parts, " | ")
}

func (s postgresTextSearch) where(tx *gorm.DB, terms []string) *gorm.DB {
	return tx.Where(database.PostgresSearchVector+" @@ to_tsquery('simple', ?)", s.expr(terms))
}

func (s postgresTextSearch) order(tx *gorm.DB, terms []string) *gorm.DB {
	return tx.Clauses(clause.OrderBy{Expression: clause.Expr{
		SQL:                "ts_rank(" + database.PostgresSearchVector + ", to_tsquery('simple', ?)) DESC, resources.created_at DESC",
		Vars:               []interface{}{s.expr(terms)},
		WithoutParentheses: true,
	}})
}

// weightedLikeSearch 没有全文索引时的退化实现：
// 任一词前缀出现在 name/tags/description 中即命中，相关度按 name 3、tags 2、description 1 累加
type weightedLikeSearch struct{}

const tagTextColumn = "resources.tag_text"

// column 词首匹配：文本字段为开头或空格后，tag_text 为每个标签开头
func (weightedLikeSearch) column(col string, term string) (string, []interface{}) {
	t := escapeLike(term)
	if col == tagTextColumn {
		return fmt.Sprintf("(%s LIKE ? ESCAPE '!')", col), []interface{}{"%\n" + t + "%"}
	}
	sql := fmt.Sprintf("(LOWER(%[1]s) LIKE ? ESCAPE '!' OR LOWER(%[1]s) LIKE ? ESCAPE '!')", col)
	return sql, []interface{}{t + "%", "% " + t + "%"}
}

func (s weightedLikeSearch) where(tx *gorm.DB, terms []string) *gorm.DB {
	var conds []string
	var vars []interface{}
	for _, t := range terms {
		for _, col := range []string{"resources.name", tagTextColumn, "resources.description"} {
			sql, v := s.column(col, t)
			conds = append(conds, sql)
			vars = append(vars, v...)
		}
	}
	return tx.Where("("+strings.Join(conds, " OR ")+")", vars...)
}

func (s weightedLikeSearch) order(tx *gorm.DB, terms []string) *gorm.DB {
	weights := []struct {
		col    string
		weight int
	}{
		{"resources.name", 3},
		{tagTextColumn, 2},
		{"resources.description", 1},
	}
	var parts []string
	var vars []interface{}
	for _, t := range terms {
		for _, w := range weights {
			sql, v := s.column(w.col, t)
			parts = append(parts, fmt.Sprintf("CASE WHEN %s THEN %d ELSE 0 END", sql, w.weight))
			vars = append(vars, v...)
		}
	}
	return tx.Clauses(clause.OrderBy{Expression: clause.Expr{
		SQL:                "(" + strings.Join(parts, " + ") + ") DESC, resources.created_at DESC",
		Vars:               vars,
		WithoutParentheses: true,
	}})
}

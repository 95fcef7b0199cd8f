// 包 bookmarks：书签落点的数据访问层
// 背景：书签里的坐标在保存时就已解析为 WGS-84，从书签发起覆盖
// 一律不再换算——这是既定政策，不是推导结论，不要改动。
package bookmarks

import (
	"context"
	"database/sql"
	"time"

	"loc-sim/internal/geo"
	"loc-sim/internal/logger"
	"loc-sim/internal/spoof"

	_ "github.com/lib/pq"
)

// Bookmark：一条保存的落点
type Bookmark struct {
	ID        int64          `json:"id"`
	Label     string         `json:"label"`
	Note      string         `json:"note,omitempty"`
	Coord     geo.Coordinate `json:"coordinate"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Point：转换为可直接喂给引擎的落点；书签坐标已解析，不再换算
func (b Bookmark) Point() spoof.LocationPoint {
	return spoof.LocationPoint{
		Coordinate:               b.Coord,
		Label:                    b.Label,
		Note:                     b.Note,
		NeedsCoordinateTransform: false,
	}
}

// Store：书签库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

// Save：写入一条书签并返回生成的 ID
func (s *Store) Save(ctx context.Context, b Bookmark) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO _loc_bookmarks(label, note, lat, lon) VALUES($1,$2,$3,$4) RETURNING id`,
		b.Label, b.Note, b.Coord.Lat, b.Coord.Lon).Scan(&id)
	if err != nil {
		return 0, err
	}
	logger.L().Debug("bookmark_saved", "id", id, "label", b.Label)
	return id, nil
}

// Get：按 ID 读取书签；未找到时返回 nil
func (s *Store) Get(ctx context.Context, id int64) (*Bookmark, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, label, note, lat, lon, created_at FROM _loc_bookmarks WHERE id=$1`, id)
	var b Bookmark
	if err := row.Scan(&b.ID, &b.Label, &b.Note, &b.Coord.Lat, &b.Coord.Lon, &b.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// List：按创建时间倒序列出书签
func (s *Store) List(ctx context.Context, limit int) ([]Bookmark, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, note, lat, lon, created_at FROM _loc_bookmarks ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Bookmark
	for rows.Next() {
		var b Bookmark
		if err := rows.Scan(&b.ID, &b.Label, &b.Note, &b.Coord.Lat, &b.Coord.Lon, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Delete：按 ID 删除书签
func (s *Store) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM _loc_bookmarks WHERE id=$1`, id)
	if err == nil {
		logger.L().Debug("bookmark_deleted", "id", id)
	}
	return err
}

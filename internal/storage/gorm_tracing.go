package storage

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// GormTracingPlugin 在 GORM 回调里为每次数据库操作补充 OpenTelemetry span
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// NewGormTracingPlugin 创建 GORM 追踪插件
func NewGormTracingPlugin(tracer trace.Tracer, dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: tracer, dbName: dbName}
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册各类 CRUD 的前后回调
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	pairs := []struct {
		op       string
		register func(name string, fn func(*gorm.DB)) error
		after    func(name string, fn func(*gorm.DB)) error
	}{
		{"CREATE",
			func(name string, fn func(*gorm.DB)) error { return cb.Create().Before("gorm:create").Register(name, fn) },
			func(name string, fn func(*gorm.DB)) error { return cb.Create().After("gorm:create").Register(name, fn) }},
		{"SELECT",
			func(name string, fn func(*gorm.DB)) error { return cb.Query().Before("gorm:query").Register(name, fn) },
			func(name string, fn func(*gorm.DB)) error { return cb.Query().After("gorm:query").Register(name, fn) }},
		{"UPDATE",
			func(name string, fn func(*gorm.DB)) error { return cb.Update().Before("gorm:update").Register(name, fn) },
			func(name string, fn func(*gorm.DB)) error { return cb.Update().After("gorm:update").Register(name, fn) }},
		{"DELETE",
			func(name string, fn func(*gorm.DB)) error { return cb.Delete().Before("gorm:delete").Register(name, fn) },
			func(name string, fn func(*gorm.DB)) error { return cb.Delete().After("gorm:delete").Register(name, fn) }},
	}

	for _, pair := range pairs {
		op := pair.op
		if err := pair.register(fmt.Sprintf("otel:before_%s", op), p.before(op)); err != nil {
			return err
		}
		if err := pair.after(fmt.Sprintf("otel:after_%s", op), p.after()); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		ctx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, tableName),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		)
		db.Statement.Context = ctx
		db.InstanceSet(gormSpanKeyName, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(gormSpanKeyName)
		if !ok {
			return
		}
		span, ok := v.(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
			return
		}
		span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))
	}
}

const gormSpanKeyName = "otel:span"

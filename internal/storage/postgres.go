package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yourname/eduflow/internal"
)

const postgresChannel = "user_documents"

// PostgresStorage keeps documents in a jsonb table. One dedicated connection
// LISTENs for changes and fans them out per uid; subscribers never hold a
// pooled connection.
type PostgresStorage struct {
	pool   *pgxpool.Pool
	dsn    string
	hub    *hub
	logger internal.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	p := &PostgresStorage{pool: pool, dsn: dsn, hub: newHub(), logger: logger, done: make(chan struct{})}
	if err := p.initTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	conn, err := p.listen(ctx)
	if err != nil {
		pool.Close()
		return nil, err
	}
	listenCtx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.listenWorker(listenCtx, conn)
	return p, nil
}

func (p *PostgresStorage) listen(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, p.dsn)
	if err != nil {
		p.logger.Errorf("failed to open listen connection: %v", err)
		return nil, err
	}
	if _, err := conn.Exec(ctx, "LISTEN "+postgresChannel); err != nil {
		_ = conn.Close(context.Background())
		p.logger.Errorf("failed to listen on %s: %v", postgresChannel, err)
		return nil, err
	}
	return conn, nil
}

// listenWorker reads notifications until ctx is cancelled, reconnecting with
// backoff when the connection drops.
func (p *PostgresStorage) listenWorker(ctx context.Context, conn *pgx.Conn) {
	defer close(p.done)
	backoff := 100 * time.Millisecond
	for {
		if conn == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			c, err := p.listen(ctx)
			if err != nil {
				if backoff < 10*time.Second {
					backoff *= 2
				}
				continue
			}
			conn = c
			backoff = 100 * time.Millisecond
			p.republish(ctx)
		}
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			_ = conn.Close(context.Background())
			conn = nil
			if ctx.Err() != nil {
				return
			}
			p.logger.Errorf("listen on %s stopped: %v", postgresChannel, err)
			continue
		}
		p.dispatch(ctx, n.Payload)
	}
}

// dispatch reads the changed document through the pool and hands it to the
// uid's watchers.
func (p *PostgresStorage) dispatch(ctx context.Context, uid string) {
	if !p.hub.has(uid) {
		return
	}
	snap, err := p.Get(ctx, uid)
	if err != nil {
		return
	}
	p.hub.publish(uid, snap)
}

// republish refreshes every watched uid after a reconnect, since
// notifications sent while disconnected are lost.
func (p *PostgresStorage) republish(ctx context.Context) {
	for _, uid := range p.hub.uids() {
		p.dispatch(ctx, uid)
	}
}

func (p *PostgresStorage) initTables(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS user_documents (
		uid TEXT PRIMARY KEY,
		data JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		p.logger.Errorf("failed to create user_documents: %v", err)
	}
	return err
}

func (p *PostgresStorage) Get(ctx context.Context, uid string) (Snapshot, error) {
	if err := validUID(uid); err != nil {
		return Snapshot{}, err
	}
	var data map[string]any
	err := p.pool.QueryRow(ctx, `SELECT data FROM user_documents WHERE uid = $1`, uid).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, nil
		}
		p.logger.Errorf("failed to query user document: %v", err)
		return Snapshot{}, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return Snapshot{Exists: true, Data: data}, nil
}

// Set upserts the document and notifies listeners in the same transaction.
func (p *PostgresStorage) Set(ctx context.Context, uid string, doc internal.Document) error {
	if err := validUID(uid); err != nil {
		return err
	}
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	err = pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO user_documents (uid, data, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (uid) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`, uid, raw); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, postgresChannel, uid)
		return err
	})
	if err != nil {
		p.logger.Errorf("failed to upsert user document: %v", err)
		return err
	}
	return nil
}

func (p *PostgresStorage) Subscribe(ctx context.Context, uid string, fn func(Snapshot)) (func(), error) {
	if err := validUID(uid); err != nil {
		return nil, err
	}
	w, cancel := p.hub.add(uid, fn)
	snap, err := p.Get(ctx, uid)
	if err != nil {
		cancel()
		return nil, err
	}
	w.offer(snap)
	return cancel, nil
}

func (p *PostgresStorage) Close() error {
	p.closeOnce.Do(func() {
		p.cancel()
		<-p.done
		p.hub.closeAll()
		p.pool.Close()
	})
	return nil
}

var _ DocumentStore = (*PostgresStorage)(nil)

package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ridoystarlord/cteshape/bootstrap"
	"github.com/ridoystarlord/cteshape/cte"
	"github.com/ridoystarlord/cteshape/loader"
	"github.com/ridoystarlord/cteshape/schema"
)

// Shapes holds the tables derived from one entity.
type Shapes struct {
	Entity      *schema.Entity
	IDTable     *cte.Table
	EntityTable *cte.Table
}

// Catalog maps entity names to their derived table shapes.
type Catalog struct {
	mu     sync.RWMutex
	shapes map[string]*Shapes
}

func New() *Catalog {
	return &Catalog{shapes: make(map[string]*Shapes)}
}

// IDTableName is the name given to an entity's identifier table.
func IDTableName(e *schema.Entity) string {
	return "ht_" + e.Table + "_id"
}

// EntityTableName is the name given to an entity's full shape table.
func EntityTableName(e *schema.Entity) string {
	return "ht_" + e.Table
}

// Get returns the shapes for an entity, or nil when none were built.
func (c *Catalog) Get(entity string) *Shapes {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shapes[entity]
}

// All returns every entry sorted by entity name.
func (c *Catalog) All() []*Shapes {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]*Shapes, 0, len(c.shapes))
	for _, s := range c.shapes {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Entity.Name < result[j].Entity.Name
	})
	return result
}

func (c *Catalog) put(s *Shapes) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shapes[s.Entity.Name] = s
}

// Build derives both tables for a single entity.
func Build(e *schema.Entity) (*Shapes, error) {
	idTable, err := cte.CreateIDTable(IDTableName(e), e)
	if err != nil {
		return nil, err
	}
	entityTable, err := cte.CreateEntityTable(EntityTableName(e), e)
	if err != nil {
		return nil, err
	}
	return &Shapes{Entity: e, IDTable: idTable, EntityTable: entityTable}, nil
}

// Register queues one callback per entity on process that builds its shapes
// into c. Callbacks hitting unresolved foreign keys are retried by process.
func (c *Catalog) Register(process *bootstrap.Process, mm *schema.Metamodel) {
	for _, e := range mm.Entities() {
		process.Register("cte tables "+e.Name, func(ctx context.Context) error {
			shapes, err := Build(e)
			if err != nil {
				return err
			}
			c.put(shapes)
			return nil
		})
	}
}

// BuildAll derives the shapes of every entity concurrently. The metamodel
// must be fully initialized.
func BuildAll(ctx context.Context, mm *schema.Metamodel) (*Catalog, error) {
	c := New()
	g, ctx := errgroup.WithContext(ctx)
	for _, e := range mm.Entities() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			shapes, err := Build(e)
			if err != nil {
				return fmt.Errorf("entity %s: %w", e.Name, err)
			}
			c.put(shapes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a mapping, either a YAML document or a directory of tagged Go
// structs, and runs metadata initialization to completion: table callbacks
// are queued ahead of foreign key resolution and re-queued until the keys
// they depend on are ready.
func Load(ctx context.Context, filename string, logger *slog.Logger) (*schema.Metamodel, *Catalog, error) {
	keys := bootstrap.NewProcess(logger)
	mm, err := readMapping(filename, keys)
	if err != nil {
		return nil, nil, err
	}

	process := bootstrap.NewProcess(logger)
	c := New()
	c.Register(process, mm)
	process.Register("foreign keys", func(ctx context.Context) error {
		return keys.Execute(ctx)
	})
	if err := process.Execute(ctx); err != nil {
		return nil, nil, fmt.Errorf("initializing %s: %w", filename, err)
	}
	logger.Info("mapping loaded", "file", filename, "entities", len(c.All()))
	return mm, c, nil
}

// LoadMetamodel reads a mapping and resolves its foreign keys without
// deriving any tables, so that table errors can be reported separately.
func LoadMetamodel(ctx context.Context, filename string, logger *slog.Logger) (*schema.Metamodel, error) {
	keys := bootstrap.NewProcess(logger)
	mm, err := readMapping(filename, keys)
	if err != nil {
		return nil, err
	}
	if err := keys.Execute(ctx); err != nil {
		return nil, fmt.Errorf("resolving foreign keys in %s: %w", filename, err)
	}
	return mm, nil
}

func readMapping(filename string, keys *bootstrap.Process) (*schema.Metamodel, error) {
	if info, err := os.Stat(filename); err == nil && info.IsDir() {
		return loader.LoadMetamodelFromTags(filename, keys)
	}
	return loader.LoadMetamodelFromYAML(filename, keys)
}

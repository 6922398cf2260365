package dialect

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	goliath "github.com/malweka/GoliathData-sub002"
)

// Dialect names. They double as database/sql driver names for the
// drivers wired by the CLI.
const (
	SQLServer = "sqlserver"
	Postgres  = "postgres"
	MySQL     = "mysql"
	SQLite    = "sqlite"
)

// IdentifierKind tells Escape what kind of identifier it is quoting.
type IdentifierKind uint8

// Identifier kinds.
const (
	KindColumn IdentifierKind = iota
	KindTable
	KindSchema
	KindAlias
)

// BindStyle is the placeholder style a database/sql driver understands.
// Statements are always rendered with named parameters; executors rebind
// them according to the style of the dialect.
type BindStyle uint8

// Bind styles.
const (
	// BindNamed keeps the rendered names and passes sql.Named arguments.
	BindNamed BindStyle = iota
	// BindDollar rewrites parameters to $1, $2, ...
	BindDollar
	// BindQuestion rewrites parameters to ?.
	BindQuestion
)

// KeyMode tells an executor how the generated key of an insert is read back.
type KeyMode uint8

// Key retrieval modes.
const (
	// KeyScalar runs the insert and its key fragment as one statement
	// and scans the single value it returns.
	KeyScalar KeyMode = iota
	// KeyLastInsertID executes the insert and reads the driver's
	// LastInsertId. The fragment is informative only.
	KeyLastInsertID
)

// KeyRetrieval is the vendor fragment appended to an insert statement so the
// generated key can be read back.
type KeyRetrieval struct {
	Fragment string
	Mode     KeyMode
	// Inline reports if the fragment continues the insert statement
	// (e.g. RETURNING) instead of following it as a separate statement.
	Inline bool
}

// TypeInfo is a registered SQL type.
type TypeInfo struct {
	Type DbType
	// Name is the vendor type name, e.g. "nvarchar".
	Name string
	// Capacity is the default length of sized types. Zero means the type
	// takes no length.
	Capacity int
}

// Function is a SQL function registered on a dialect. Template receives the
// comma separated arguments through a single %s verb; zero-argument
// functions have none.
type Function struct {
	Name     string
	Template string
}

// Render renders the function call with the given arguments.
func (f Function) Render(args ...string) string {
	if !strings.Contains(f.Template, "%s") {
		return f.Template
	}
	return fmt.Sprintf(f.Template, strings.Join(args, ", "))
}

// Dialect translates vendor-neutral descriptors into literal SQL and holds the
// vendor's type knowledge. The registries are populated at construction;
// mutation afterwards is lock protected but not expected.
type Dialect struct {
	name      string
	open      string
	close     string
	prefix    string
	bind      BindStyle
	paging    func(*Dialect, SelectBody, PagingInfo) string
	key       func(*Dialect, string, string) KeyRetrieval
	emptyRow  string
	mu        sync.RWMutex
	types     map[DbType]TypeInfo
	names     map[string]DbType
	functions map[string]Function
}

// Option configures a Dialect.
type Option func(*Dialect)

// WithParameterPrefix overrides the parameter prefix ("@" by default).
func WithParameterPrefix(prefix string) Option {
	return func(d *Dialect) {
		d.prefix = prefix
	}
}

// WithBindStyle overrides how executors bind the parameters of this dialect.
func WithBindStyle(style BindStyle) Option {
	return func(d *Dialect) {
		d.bind = style
	}
}

// WithFunction registers or overrides a function at construction time.
func WithFunction(name, template string) Option {
	return func(d *Dialect) {
		d.functions[strings.ToUpper(name)] = Function{Name: strings.ToUpper(name), Template: template}
	}
}

func newDialect(name string) *Dialect {
	return &Dialect{
		name:      name,
		open:      "[",
		close:     "]",
		prefix:    "@",
		bind:      BindNamed,
		paging:    limitOffset,
		emptyRow:  "DEFAULT VALUES",
		types:     make(map[DbType]TypeInfo),
		names:     make(map[string]DbType),
		functions: make(map[string]Function),
	}
}

// Name returns the dialect name.
func (d *Dialect) Name() string { return d.name }

// BindStyle returns the placeholder style executors should use.
func (d *Dialect) BindStyle() BindStyle { return d.bind }

// ParameterPrefix returns the prefix of rendered parameter names.
func (d *Dialect) ParameterPrefix() string { return d.prefix }

// Escape quotes an identifier. Tables and schemas are split on dots so that
// "dbo.zoos" becomes "[dbo].[zoos]"; already quoted parts are left intact.
func (d *Dialect) Escape(identifier string, kind IdentifierKind) string {
	if identifier == "" || identifier == "*" {
		return identifier
	}
	if kind == KindAlias {
		return d.quote(identifier)
	}
	parts := strings.Split(identifier, ".")
	for i, p := range parts {
		parts[i] = d.quote(p)
	}
	return strings.Join(parts, ".")
}

func (d *Dialect) quote(s string) string {
	if s == "*" || (strings.HasPrefix(s, d.open) && strings.HasSuffix(s, d.close)) {
		return s
	}
	return d.open + s + d.close
}

// CreateParameterName returns the placeholder token of a parameter.
func (d *Dialect) CreateParameterName(name string) string {
	return d.prefix + name
}

// RegisterType registers a vendor type name for a DbType. The first name
// registered for a DbType is the one used when rendering; every name is
// added to the reverse lookup, and re-registering a name overwrites it.
func (d *Dialect) RegisterType(t DbType, name string, capacity ...int) {
	info := TypeInfo{Type: t, Name: name}
	if len(capacity) > 0 {
		info.Capacity = capacity[0]
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.types[t]; !ok {
		d.types[t] = info
	}
	d.names[fold(name)] = t
}

// SqlStringToDbType maps a vendor type name back to its DbType. The lookup is
// case-insensitive; a capacity such as "(50)" is ignored unless the name
// was registered with it, like MySQL's "tinyint(1)".
func (d *Dialect) SqlStringToDbType(name string) (DbType, error) {
	d.mu.RLock()
	t, ok := d.names[fold(name)]
	if !ok {
		t, ok = d.names[fold(stripCapacity(name))]
	}
	d.mu.RUnlock()
	if !ok {
		return TypeUnknown, goliath.NewLookupError("sql type", name)
	}
	return t, nil
}

// DbTypeToSqlString renders the vendor type of t. Length applies to sized
// types (a negative length renders the vendor maximum); precision and scale
// apply to decimals.
func (d *Dialect) DbTypeToSqlString(t DbType, length, precision, scale int) (string, error) {
	d.mu.RLock()
	info, ok := d.types[t]
	d.mu.RUnlock()
	if !ok {
		return "", goliath.NewUnsupportedError(d.name, "type "+t.String())
	}
	switch {
	case t == TypeDecimal || t == TypeCurrency:
		if precision > 0 {
			return fmt.Sprintf("%s(%d,%d)", info.Name, precision, scale), nil
		}
		return info.Name, nil
	case info.Capacity == 0:
		return info.Name, nil
	case length < 0:
		if d.name == SQLServer {
			return info.Name + "(max)", nil
		}
		return info.Name, nil
	case length == 0:
		return fmt.Sprintf("%s(%d)", info.Name, info.Capacity), nil
	default:
		return fmt.Sprintf("%s(%d)", info.Name, length), nil
	}
}

// TypeInfo returns the type used to render t.
func (d *Dialect) TypeInfo(t DbType) (TypeInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, ok := d.types[t]
	return info, ok
}

// Types returns the registered types ordered by DbType.
func (d *Dialect) Types() []TypeInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	infos := make([]TypeInfo, 0, len(d.types))
	for _, info := range d.types {
		infos = append(infos, info)
	}
	slices.SortFunc(infos, func(a, b TypeInfo) int { return int(a.Type) - int(b.Type) })
	return infos
}

// RegisterFunction registers a SQL function on the dialect.
func (d *Dialect) RegisterFunction(name, template string) {
	name = strings.ToUpper(name)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.functions[name] = Function{Name: name, Template: template}
}

// Function looks up a registered function. Callers must treat a miss as an
// unsupported feature and never substitute another function.
func (d *Dialect) Function(name string) (Function, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := d.functions[strings.ToUpper(name)]
	return f, ok
}

// CallFunction renders a call to a registered function.
func (d *Dialect) CallFunction(name string, args ...string) (string, error) {
	f, ok := d.Function(name)
	if !ok {
		return "", goliath.NewUnsupportedError(d.name, "function "+strings.ToUpper(name))
	}
	return f.Render(args...), nil
}

// KeyRetrieval returns the fragment that reads back the key generated for
// column on insert into table.
func (d *Dialect) KeyRetrieval(table, column string) KeyRetrieval {
	return d.key(d, table, column)
}

var capacityRe = regexp.MustCompile(`\s*\(.*\)\s*$`)

func stripCapacity(s string) string {
	return capacityRe.ReplaceAllString(strings.TrimSpace(s), "")
}

// fold normalizes type names for lookups. A Caser is not safe for
// concurrent use, so one is created per call.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

var registry = struct {
	sync.RWMutex
	ctors map[string]func(...Option) *Dialect
}{
	ctors: map[string]func(...Option) *Dialect{
		SQLServer: NewSQLServer,
		Postgres:  NewPostgres,
		MySQL:     NewMySQL,
		SQLite:    NewSQLite,
	},
}

// Register registers a dialect constructor under name. Registering a name
// twice is a configuration error.
func Register(name string, ctor func(...Option) *Dialect) error {
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.ctors[name]; ok {
		return goliath.NewMappingError("", "", "dialect %q registered twice", name)
	}
	registry.ctors[name] = ctor
	return nil
}

// Get returns a new dialect by name.
func Get(name string, opts ...Option) (*Dialect, error) {
	registry.RLock()
	ctor, ok := registry.ctors[name]
	registry.RUnlock()
	if !ok {
		return nil, goliath.NewLookupError("dialect", name)
	}
	return ctor(opts...), nil
}

// Names returns the registered dialect names in sorted order.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.ctors))
	for name := range registry.ctors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

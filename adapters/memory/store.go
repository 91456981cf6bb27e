package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"oltmap/domain/inventory"
	"oltmap/internal/errors"
	"oltmap/ports"
)

// Store is an in-memory inventory store. Transactions are serialized and work on a
// copy of the data that replaces the live data only on commit.
type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

var _ ports.Store = (*Store)(nil)

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{data: newState(), now: time.Now}
}

type state struct {
	seq      map[string]int64
	olts     map[int64]inventory.Olt
	ports    map[int64]inventory.Port
	edfas    map[int64]inventory.Edfa
	chasis   map[int64]inventory.Chasis
	divisors map[int64]inventory.Divisor
	odfs     map[int64]inventory.Odf
	odfPorts map[int64]inventory.OdfPort
	mappings map[int64]inventory.Mapping
}

func newState() *state {
	return &state{
		seq:      map[string]int64{},
		olts:     map[int64]inventory.Olt{},
		ports:    map[int64]inventory.Port{},
		edfas:    map[int64]inventory.Edfa{},
		chasis:   map[int64]inventory.Chasis{},
		divisors: map[int64]inventory.Divisor{},
		odfs:     map[int64]inventory.Odf{},
		odfPorts: map[int64]inventory.OdfPort{},
		mappings: map[int64]inventory.Mapping{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	return &state{
		seq:      cloneMap(s.seq),
		olts:     cloneMap(s.olts),
		ports:    cloneMap(s.ports),
		edfas:    cloneMap(s.edfas),
		chasis:   cloneMap(s.chasis),
		divisors: cloneMap(s.divisors),
		odfs:     cloneMap(s.odfs),
		odfPorts: cloneMap(s.odfPorts),
		mappings: cloneMap(s.mappings),
	}
}

func (s *state) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// InTx implements ports.IngestionStore
func (s *Store) InTx(ctx context.Context, fn func(tx ports.IngestionTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	if err := fn(&tx{st: work, now: s.now}); err != nil {
		return err
	}
	s.data = work
	return nil
}

// Ping implements ports.Store
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close implements ports.Store
func (s *Store) Close() error {
	return nil
}

type tx struct {
	st  *state
	now func() time.Time
}

func (t *tx) FindOltByID(ctx context.Context, id int64) (*inventory.Olt, error) {
	olt, ok := t.st.olts[id]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("olt %d", id))
	}
	return &olt, nil
}

func (t *tx) FindOltByName(ctx context.Context, name string) (*inventory.Olt, error) {
	if olt, ok := t.st.oltByName(name); ok {
		return &olt, nil
	}
	return nil, errors.NotFound(fmt.Sprintf("olt %q", name))
}

func (s *state) oltByName(name string) (inventory.Olt, bool) {
	for _, olt := range s.olts {
		if olt.Name == name {
			return olt, true
		}
	}
	return inventory.Olt{}, false
}

func (t *tx) FindOrCreateOltByName(ctx context.Context, name string) (*inventory.Olt, error) {
	if olt, ok := t.st.oltByName(name); ok {
		return &olt, nil
	}
	olt := inventory.Olt{ID: t.st.next("olts"), Name: name, CreatedAt: t.now()}
	t.st.olts[olt.ID] = olt
	return &olt, nil
}

func (t *tx) EnsureOltByID(ctx context.Context, id int64, name string) (*inventory.Olt, error) {
	if olt, ok := t.st.olts[id]; ok {
		return &olt, nil
	}
	if _, taken := t.st.oltByName(name); taken {
		return nil, errors.Conflict(fmt.Sprintf("olt name %q already in use", name))
	}
	olt := inventory.Olt{ID: id, Name: name, CreatedAt: t.now()}
	t.st.olts[id] = olt
	if id > t.st.seq["olts"] {
		t.st.seq["olts"] = id
	}
	return &olt, nil
}

func (s *state) portByKey(key inventory.PortKey) (inventory.Port, bool) {
	for _, p := range s.ports {
		if p.Key() == key {
			return p, true
		}
	}
	return inventory.Port{}, false
}

func checkPort(p inventory.Port) error {
	if inventory.IsControllerSlot(p.Slot) {
		return inventory.ErrControllerSlot
	}
	if !inventory.SlotInRange(p.Slot) || !inventory.PortNumberInRange(p.PortNumber) {
		return errors.ValidationError(fmt.Sprintf("port S%d-P%d out of range", p.Slot, p.PortNumber))
	}
	return nil
}

func (t *tx) insertPort(p inventory.Port) (inventory.Port, error) {
	if err := checkPort(p); err != nil {
		return p, err
	}
	if _, ok := t.st.olts[p.OltID]; !ok {
		return p, errors.NotFound(fmt.Sprintf("olt %d", p.OltID))
	}
	if p.Status == "" {
		p.Status = inventory.StatusAvailable
	}
	p.ID = t.st.next("ports")
	p.CreatedAt = t.now()
	p.UpdatedAt = p.CreatedAt
	t.st.ports[p.ID] = p
	return p, nil
}

func (t *tx) FindOrCreatePort(ctx context.Context, port inventory.Port) (*inventory.Port, error) {
	if p, ok := t.st.portByKey(port.Key()); ok {
		return &p, nil
	}
	p, err := t.insertPort(port)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *tx) BulkInsertPorts(ctx context.Context, batch []inventory.Port) (int, error) {
	inserted := 0
	for _, port := range batch {
		if _, ok := t.st.portByKey(port.Key()); ok {
			continue
		}
		if _, err := t.insertPort(port); err != nil {
			return 0, err
		}
		inserted++
	}
	return inserted, nil
}

func (t *tx) FindOrCreateEdfa(ctx context.Context, name string) (*inventory.Edfa, error) {
	for _, e := range t.st.edfas {
		if e.Name == name {
			return &e, nil
		}
	}
	e := inventory.Edfa{ID: t.st.next("edfas"), Name: name}
	t.st.edfas[e.ID] = e
	return &e, nil
}

func (t *tx) FindOrCreateChasis(ctx context.Context, name string) (*inventory.Chasis, error) {
	for _, c := range t.st.chasis {
		if c.Name == name {
			return &c, nil
		}
	}
	c := inventory.Chasis{ID: t.st.next("chasis"), Name: name}
	t.st.chasis[c.ID] = c
	return &c, nil
}

func (t *tx) FindOrCreateDivisor(ctx context.Context, chasisID int64, slot int) (*inventory.Divisor, error) {
	for _, d := range t.st.divisors {
		if d.ChasisID == chasisID && d.Slot == slot {
			return &d, nil
		}
	}
	d := inventory.Divisor{ID: t.st.next("divisors"), ChasisID: chasisID, Slot: slot}
	t.st.divisors[d.ID] = d
	return &d, nil
}

func (t *tx) FindOrCreateOdf(ctx context.Context, odfNumber int) (*inventory.Odf, error) {
	for _, o := range t.st.odfs {
		if o.OdfNumber == odfNumber {
			return &o, nil
		}
	}
	o := inventory.Odf{ID: t.st.next("odfs"), OdfNumber: odfNumber}
	t.st.odfs[o.ID] = o
	return &o, nil
}

func (t *tx) FindOrCreateOdfPort(ctx context.Context, odfID int64, buffer int, color string) (*inventory.OdfPort, error) {
	for _, p := range t.st.odfPorts {
		if p.OdfID == odfID && p.Buffer == buffer && p.Color == color {
			return &p, nil
		}
	}
	p := inventory.OdfPort{ID: t.st.next("odf_ports"), OdfID: odfID, Buffer: buffer, Color: color}
	t.st.odfPorts[p.ID] = p
	return &p, nil
}

func (t *tx) CreateMapping(ctx context.Context, m inventory.Mapping) (*inventory.Mapping, error) {
	if _, ok := t.st.ports[m.PortID]; !ok {
		return nil, errors.NotFound(fmt.Sprintf("port %d", m.PortID))
	}
	if _, ok := t.st.odfPorts[m.OdfPortID]; !ok {
		return nil, errors.NotFound(fmt.Sprintf("odf port %d", m.OdfPortID))
	}
	m.ID = t.st.next("mappings")
	m.CreatedAt = t.now()
	t.st.mappings[m.ID] = m
	return &m, nil
}

func (t *tx) SetOdfName(ctx context.Context, odfID int64, name string) error {
	o, ok := t.st.odfs[odfID]
	if !ok {
		return errors.NotFound(fmt.Sprintf("odf %d", odfID))
	}
	o.Name = &name
	t.st.odfs[odfID] = o
	return nil
}

func (t *tx) SetOdfPortNumber(ctx context.Context, odfPortID int64, number int) error {
	p, ok := t.st.odfPorts[odfPortID]
	if !ok {
		return errors.NotFound(fmt.Sprintf("odf port %d", odfPortID))
	}
	p.Number = &number
	t.st.odfPorts[odfPortID] = p
	return nil
}

func (t *tx) SetDivisorType(ctx context.Context, divisorID int64, kind string) error {
	d, ok := t.st.divisors[divisorID]
	if !ok {
		return errors.NotFound(fmt.Sprintf("divisor %d", divisorID))
	}
	d.Type = &kind
	t.st.divisors[divisorID] = d
	return nil
}

func (t *tx) DeleteAllMappings(ctx context.Context) (int64, error) {
	n := int64(len(t.st.mappings))
	t.st.mappings = map[int64]inventory.Mapping{}
	return n, nil
}

func (t *tx) DeleteOltMappings(ctx context.Context, oltID int64) (int64, error) {
	var n int64
	for id, m := range t.st.mappings {
		if m.OltID == oltID || t.st.ports[m.PortID].OltID == oltID {
			delete(t.st.mappings, id)
			n++
		}
	}
	return n, nil
}

func (t *tx) DeleteOltPortsAndMappings(ctx context.Context, oltID int64) (int64, error) {
	n, _ := t.DeleteOltMappings(ctx, oltID)
	for id, p := range t.st.ports {
		if p.OltID == oltID {
			delete(t.st.ports, id)
			n++
		}
	}
	return n, nil
}

// CreateOlt implements ports.InventoryRepository
func (s *Store) CreateOlt(ctx context.Context, name string) (*inventory.Olt, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.ValidationError("Nombre de OLT requerido")
	}
	var created *inventory.Olt
	err := s.InTx(ctx, func(ptx ports.IngestionTx) error {
		t := ptx.(*tx)
		if _, taken := t.st.oltByName(name); taken {
			return errors.Conflict(fmt.Sprintf("olt %q already exists", name))
		}
		olt, err := t.FindOrCreateOltByName(ctx, name)
		created = olt
		return err
	})
	return created, err
}

func (s *Store) ListOlts(ctx context.Context) ([]inventory.Olt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]inventory.Olt, 0, len(s.data.olts))
	for _, o := range s.data.olts {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetOlt(ctx context.Context, id int64) (*inventory.Olt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return (&tx{st: s.data}).FindOltByID(ctx, id)
}

func sortPorts(ps []inventory.Port) {
	sort.Slice(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if a.OltID != b.OltID {
			return a.OltID < b.OltID
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.PortNumber < b.PortNumber
	})
}

func (s *Store) ListPortsByOlt(ctx context.Context, oltID int64) ([]inventory.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []inventory.Port{}
	for _, p := range s.data.ports {
		if p.OltID == oltID {
			out = append(out, p)
		}
	}
	sortPorts(out)
	return out, nil
}

func (s *Store) ListPorts(ctx context.Context) ([]inventory.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]inventory.Port, 0, len(s.data.ports))
	for _, p := range s.data.ports {
		out = append(out, p)
	}
	sortPorts(out)
	return out, nil
}

func (s *Store) GetPort(ctx context.Context, id int64) (*inventory.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.ports[id]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("port %d", id))
	}
	return &p, nil
}

func (s *Store) UpdatePort(ctx context.Context, id int64, update inventory.PortUpdate) (*inventory.Port, error) {
	if update.Status != nil && !update.Status.Valid() {
		return nil, errors.ValidationError(fmt.Sprintf("estado inválido %q", *update.Status))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.ports[id]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("port %d", id))
	}
	if update.Status != nil {
		p.Status = *update.Status
	}
	if update.Label != nil {
		p.Label = *update.Label
	}
	p.UpdatedAt = s.now()
	s.data.ports[id] = p
	return &p, nil
}

func (s *state) odfWithPorts(o inventory.Odf) inventory.Odf {
	o.Ports = []inventory.OdfPort{}
	for _, p := range s.odfPorts {
		if p.OdfID == o.ID {
			o.Ports = append(o.Ports, p)
		}
	}
	sort.Slice(o.Ports, func(i, j int) bool {
		if o.Ports[i].Buffer != o.Ports[j].Buffer {
			return o.Ports[i].Buffer < o.Ports[j].Buffer
		}
		return o.Ports[i].ID < o.Ports[j].ID
	})
	return o
}

func (s *Store) ListOdfs(ctx context.Context) ([]inventory.Odf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]inventory.Odf, 0, len(s.data.odfs))
	for _, o := range s.data.odfs {
		out = append(out, s.data.odfWithPorts(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OdfNumber < out[j].OdfNumber })
	return out, nil
}

func (s *Store) GetOdf(ctx context.Context, id int64) (*inventory.Odf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.data.odfs[id]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("odf %d", id))
	}
	o = s.data.odfWithPorts(o)
	return &o, nil
}

func (s *Store) ListMappingDetails(ctx context.Context) ([]inventory.MappingDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]inventory.MappingDetail, 0, len(s.data.mappings))
	for _, m := range s.data.mappings {
		op := s.data.odfPorts[m.OdfPortID]
		out = append(out, inventory.MappingDetail{
			Mapping: m,
			OdfPort: op,
			Odf:     s.data.odfs[op.OdfID],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

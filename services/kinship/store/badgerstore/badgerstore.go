// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/KinGraph/services/kinship/graph"
)

// Key prefixes. Every key embeds the tenant so isolation holds at the
// storage layer, not just in query code.
const (
	prefixPerson       = "p"  // p|tenant|personID -> Person
	prefixParents      = "pa" // pa|tenant|personID -> []PersonID
	prefixChildren     = "ch" // ch|tenant|personID -> []PersonID
	prefixUnion        = "un" // un|tenant|unionID -> Union
	prefixPersonUnions = "pu" // pu|tenant|personID -> []UnionID
)

// Store is the BadgerDB-backed graph store.
//
// Adjacency lists are stored denormalized in both directions, kept
// sorted ascending on write so reads satisfy the GraphStore ordering
// contract without sorting.
//
// Thread Safety: safe for concurrent use; BadgerDB transactions provide
// isolation.
type Store struct {
	db *badger.DB
	gc *gcRunner
}

// Interface conformance.
var (
	_ graph.GraphStore     = (*Store)(nil)
	_ graph.BatchAdjacency = (*Store)(nil)
	_ graph.GraphWriter    = (*Store)(nil)
)

// Open creates a store with the given configuration.
func Open(cfg Config) (*Store, error) {
	db, err := openBadger(cfg)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		s.gc = newGCRunner(db, cfg.GCInterval, cfg.GCDiscardRatio, cfg.Logger)
		s.gc.start()
	}
	return s, nil
}

// OpenInMemory opens a throwaway store for tests.
func OpenInMemory() (*Store, error) {
	return Open(InMemoryConfig())
}

// Close stops background GC and closes the database.
func (s *Store) Close() error {
	if s.gc != nil {
		s.gc.stop()
	}
	return s.db.Close()
}

func key(prefix string, tenant graph.TenantID, id string) []byte {
	return []byte(prefix + "|" + string(tenant) + "|" + id)
}

// ============================================================================
// Reads
// ============================================================================

// GetParents returns the parents of a person, sorted ascending.
func (s *Store) GetParents(ctx context.Context, tenant graph.TenantID, person graph.PersonID) ([]graph.PersonID, error) {
	return s.readAdjacency(ctx, prefixParents, tenant, person)
}

// GetChildren returns the children of a person, sorted ascending.
func (s *Store) GetChildren(ctx context.Context, tenant graph.TenantID, person graph.PersonID) ([]graph.PersonID, error) {
	return s.readAdjacency(ctx, prefixChildren, tenant, person)
}

func (s *Store) readAdjacency(ctx context.Context, prefix string, tenant graph.TenantID, person graph.PersonID) ([]graph.PersonID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []graph.PersonID
	err := s.db.View(func(txn *badger.Txn) error {
		return readJSON(txn, key(prefix, tenant, string(person)), &out)
	})
	if err != nil {
		return nil, fmt.Errorf("read adjacency: %w", err)
	}
	return out, nil
}

// GetUnionPartners returns the partners of a person across all unions.
func (s *Store) GetUnionPartners(ctx context.Context, tenant graph.TenantID, person graph.PersonID) ([]graph.PersonID, error) {
	unions, err := s.GetPersonUnions(ctx, tenant, person)
	if err != nil {
		return nil, err
	}
	var out []graph.PersonID
	for _, u := range unions {
		for _, m := range u.Members {
			if m != person {
				out = insertSorted(out, m)
			}
		}
	}
	return out, nil
}

// GetPersonUnions returns the unions a person belongs to, sorted by id.
func (s *Store) GetPersonUnions(ctx context.Context, tenant graph.TenantID, person graph.PersonID) ([]graph.Union, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []graph.Union
	err := s.db.View(func(txn *badger.Txn) error {
		var ids []graph.UnionID
		if err := readJSON(txn, key(prefixPersonUnions, tenant, string(person)), &ids); err != nil {
			return err
		}
		for _, id := range ids {
			var u graph.Union
			if err := readJSON(txn, key(prefixUnion, tenant, string(id)), &u); err != nil {
				return err
			}
			if u.ID != "" {
				out = append(out, u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read unions: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// PersonExists reports whether the person exists within the tenant.
func (s *Store) PersonExists(ctx context.Context, tenant graph.TenantID, person graph.PersonID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(prefixPerson, tenant, string(person)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("person lookup: %w", err)
	}
	return found, nil
}

// GetPersonSummary returns the read-model slice of a person record.
func (s *Store) GetPersonSummary(ctx context.Context, tenant graph.TenantID, person graph.PersonID) (*graph.PersonSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var p graph.Person
	err := s.db.View(func(txn *badger.Txn) error {
		return readJSON(txn, key(prefixPerson, tenant, string(person)), &p)
	})
	if err != nil {
		return nil, fmt.Errorf("read person: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("%w: %s", graph.ErrNotFound, person)
	}
	return &graph.PersonSummary{
		ID:          p.ID,
		DisplayName: p.Name,
		Sex:         p.Sex,
		SexLabel:    p.Sex.String(),
		BirthDate:   p.BirthDate,
		DeathDate:   p.DeathDate,
		IsLiving:    p.IsLiving,
	}, nil
}

// GetParentsBatch returns parents for each requested person in one
// transaction.
func (s *Store) GetParentsBatch(ctx context.Context, tenant graph.TenantID, persons []graph.PersonID) (map[graph.PersonID][]graph.PersonID, error) {
	return s.readAdjacencyBatch(ctx, prefixParents, tenant, persons)
}

// GetChildrenBatch returns children for each requested person in one
// transaction.
func (s *Store) GetChildrenBatch(ctx context.Context, tenant graph.TenantID, persons []graph.PersonID) (map[graph.PersonID][]graph.PersonID, error) {
	return s.readAdjacencyBatch(ctx, prefixChildren, tenant, persons)
}

func (s *Store) readAdjacencyBatch(ctx context.Context, prefix string, tenant graph.TenantID, persons []graph.PersonID) (map[graph.PersonID][]graph.PersonID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[graph.PersonID][]graph.PersonID, len(persons))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, p := range persons {
			var ids []graph.PersonID
			if err := readJSON(txn, key(prefix, tenant, string(p)), &ids); err != nil {
				return err
			}
			out[p] = ids
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read adjacency batch: %w", err)
	}
	return out, nil
}

// GetUnionPartnersBatch returns union partners for each requested person.
func (s *Store) GetUnionPartnersBatch(ctx context.Context, tenant graph.TenantID, persons []graph.PersonID) (map[graph.PersonID][]graph.PersonID, error) {
	out := make(map[graph.PersonID][]graph.PersonID, len(persons))
	for _, p := range persons {
		partners, err := s.GetUnionPartners(ctx, tenant, p)
		if err != nil {
			return nil, err
		}
		out[p] = partners
	}
	return out, nil
}

// ============================================================================
// Writes
// ============================================================================

// CreatePerson adds a person record.
func (s *Store) CreatePerson(ctx context.Context, p graph.Person) error {
	if p.ID == "" || p.TenantID == "" {
		return fmt.Errorf("person requires id and tenant")
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		k := key(prefixPerson, p.TenantID, string(p.ID))
		if _, err := txn.Get(k); err == nil {
			return fmt.Errorf("%w: %s", graph.ErrDuplicatePerson, p.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return writeJSON(txn, k, p)
	})
}

// UpdatePerson replaces the mutable fields of a person record.
func (s *Store) UpdatePerson(ctx context.Context, p graph.Person) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		k := key(prefixPerson, p.TenantID, string(p.ID))
		if _, err := txn.Get(k); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", graph.ErrNotFound, p.ID)
		} else if err != nil {
			return err
		}
		return writeJSON(txn, k, p)
	})
}

// DeletePerson removes a person, their parent-child edges, and their
// union memberships.
func (s *Store) DeletePerson(ctx context.Context, tenant graph.TenantID, person graph.PersonID) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		pk := key(prefixPerson, tenant, string(person))
		if _, err := txn.Get(pk); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", graph.ErrNotFound, person)
		} else if err != nil {
			return err
		}

		var parents []graph.PersonID
		if err := readJSON(txn, key(prefixParents, tenant, string(person)), &parents); err != nil {
			return err
		}
		for _, parent := range parents {
			if err := removeFromList(txn, key(prefixChildren, tenant, string(parent)), person); err != nil {
				return err
			}
		}

		var children []graph.PersonID
		if err := readJSON(txn, key(prefixChildren, tenant, string(person)), &children); err != nil {
			return err
		}
		for _, child := range children {
			if err := removeFromList(txn, key(prefixParents, tenant, string(child)), person); err != nil {
				return err
			}
		}

		var unionIDs []graph.UnionID
		if err := readJSON(txn, key(prefixPersonUnions, tenant, string(person)), &unionIDs); err != nil {
			return err
		}
		for _, id := range unionIDs {
			uk := key(prefixUnion, tenant, string(id))
			var u graph.Union
			if err := readJSON(txn, uk, &u); err != nil {
				return err
			}
			if u.ID == "" {
				continue
			}
			u.Members = removeID(u.Members, person)
			if err := writeJSON(txn, uk, u); err != nil {
				return err
			}
		}

		for _, k := range [][]byte{
			pk,
			key(prefixParents, tenant, string(person)),
			key(prefixChildren, tenant, string(person)),
			key(prefixPersonUnions, tenant, string(person)),
		} {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddParentChildEdge links parent to child.
func (s *Store) AddParentChildEdge(ctx context.Context, tenant graph.TenantID, parent, child graph.PersonID) error {
	if parent == child {
		return fmt.Errorf("%w: %s", graph.ErrSelfLoop, parent)
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		if err := requirePersons(txn, tenant, parent, child); err != nil {
			return err
		}
		if err := insertIntoList(txn, key(prefixParents, tenant, string(child)), parent); err != nil {
			return err
		}
		return insertIntoList(txn, key(prefixChildren, tenant, string(parent)), child)
	})
}

// RemoveParentChildEdge unlinks parent from child. Removing an absent
// edge is a no-op.
func (s *Store) RemoveParentChildEdge(ctx context.Context, tenant graph.TenantID, parent, child graph.PersonID) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if err := requirePersons(txn, tenant, parent, child); err != nil {
			return err
		}
		if err := removeFromList(txn, key(prefixParents, tenant, string(child)), parent); err != nil {
			return err
		}
		return removeFromList(txn, key(prefixChildren, tenant, string(parent)), child)
	})
}

// CreateUnion records a union of two or more persons.
func (s *Store) CreateUnion(ctx context.Context, u graph.Union) error {
	if u.ID == "" || u.TenantID == "" {
		return fmt.Errorf("union requires id and tenant")
	}
	if len(u.Members) < 2 {
		return fmt.Errorf("%w: got %d members", graph.ErrUnionTooSmall, len(u.Members))
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		uk := key(prefixUnion, u.TenantID, string(u.ID))
		if _, err := txn.Get(uk); err == nil {
			return fmt.Errorf("union %s already exists", u.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := requirePersons(txn, u.TenantID, u.Members...); err != nil {
			return err
		}

		stored := u
		stored.Members = append([]graph.PersonID(nil), u.Members...)
		sort.Slice(stored.Members, func(i, j int) bool { return stored.Members[i] < stored.Members[j] })
		if err := writeJSON(txn, uk, stored); err != nil {
			return err
		}

		for _, m := range stored.Members {
			if err := indexUnion(txn, u.TenantID, m, u.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddUnionMember adds a person to an existing union.
func (s *Store) AddUnionMember(ctx context.Context, tenant graph.TenantID, union graph.UnionID, person graph.PersonID) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		uk := key(prefixUnion, tenant, string(union))
		var u graph.Union
		if err := readJSON(txn, uk, &u); err != nil {
			return err
		}
		if u.ID == "" {
			return fmt.Errorf("%w: union %s", graph.ErrNotFound, union)
		}
		if err := requirePersons(txn, tenant, person); err != nil {
			return err
		}
		u.Members = insertSorted(u.Members, person)
		if err := writeJSON(txn, uk, u); err != nil {
			return err
		}
		return indexUnion(txn, tenant, person, union)
	})
}

// RemoveUnionMember removes a person from a union.
func (s *Store) RemoveUnionMember(ctx context.Context, tenant graph.TenantID, union graph.UnionID, person graph.PersonID) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		uk := key(prefixUnion, tenant, string(union))
		var u graph.Union
		if err := readJSON(txn, uk, &u); err != nil {
			return err
		}
		if u.ID == "" {
			return fmt.Errorf("%w: union %s", graph.ErrNotFound, union)
		}
		u.Members = removeID(u.Members, person)
		if err := writeJSON(txn, uk, u); err != nil {
			return err
		}

		ik := key(prefixPersonUnions, tenant, string(person))
		var ids []graph.UnionID
		if err := readJSON(txn, ik, &ids); err != nil {
			return err
		}
		for i, id := range ids {
			if id == union {
				ids = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		return writeJSON(txn, ik, ids)
	})
}

// ============================================================================
// Transaction helpers
// ============================================================================

// update runs fn in a read-write transaction, honoring ctx cancellation
// before the transaction starts.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(fn)
}

func readJSON(txn *badger.Txn, k []byte, out interface{}) error {
	item, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func writeJSON(txn *badger.Txn, k []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(k, data)
}

func requirePersons(txn *badger.Txn, tenant graph.TenantID, persons ...graph.PersonID) error {
	for _, p := range persons {
		if _, err := txn.Get(key(prefixPerson, tenant, string(p))); errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", graph.ErrNotFound, p)
		} else if err != nil {
			return err
		}
	}
	return nil
}

func insertIntoList(txn *badger.Txn, k []byte, id graph.PersonID) error {
	var ids []graph.PersonID
	if err := readJSON(txn, k, &ids); err != nil {
		return err
	}
	return writeJSON(txn, k, insertSorted(ids, id))
}

func removeFromList(txn *badger.Txn, k []byte, id graph.PersonID) error {
	var ids []graph.PersonID
	if err := readJSON(txn, k, &ids); err != nil {
		return err
	}
	return writeJSON(txn, k, removeID(ids, id))
}

func indexUnion(txn *badger.Txn, tenant graph.TenantID, person graph.PersonID, union graph.UnionID) error {
	ik := key(prefixPersonUnions, tenant, string(person))
	var ids []graph.UnionID
	if err := readJSON(txn, ik, &ids); err != nil {
		return err
	}
	for _, id := range ids {
		if id == union {
			return nil
		}
	}
	ids = append(ids, union)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return writeJSON(txn, ik, ids)
}

func insertSorted(ids []graph.PersonID, id graph.PersonID) []graph.PersonID {
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeID(ids []graph.PersonID, id graph.PersonID) []graph.PersonID {
	for i, x := range ids {
		if x == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

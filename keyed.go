// Copyright (c) Facebook, Inc. and its affiliates. All Rights Reserved

package bitlock

import "fmt"

// KeyedLocks maps arbitrary byte keys onto a fixed number of bit-locks
// (stripes).  Distinct keys may share a stripe, in which case they
// exclude each other.
type KeyedLocks struct {
	locks  *Vector
	hashfn HashFn
}

// NewKeyedLocks allocates stripes bit-locks.  A nil fn selects
// MurmurHash64.
func NewKeyedLocks(stripes uint64, fn HashFn) *KeyedLocks {
	if stripes == 0 {
		panic("bitlock: KeyedLocks needs at least one stripe")
	}
	if fn == nil {
		fn = MurmurHash64
	}
	return &KeyedLocks{
		locks:  New(stripes),
		hashfn: fn,
	}
}

// Stripes returns the number of bit-locks.
func (k *KeyedLocks) Stripes() uint64 {
	return k.locks.Len()
}

// Stripe returns the bit-lock index guarding key.
func (k *KeyedLocks) Stripe(key []byte) uint64 {
	return k.hashfn(key) % k.locks.Len()
}

func (k *KeyedLocks) Lock(key []byte) {
	k.locks.Lock(k.Stripe(key))
}

func (k *KeyedLocks) TryLock(key []byte) bool {
	return k.locks.TryLock(k.Stripe(key))
}

func (k *KeyedLocks) Unlock(key []byte) {
	k.locks.Unlock(k.Stripe(key))
}

func (k *KeyedLocks) LockString(key string) {
	k.Lock(bytesOf(key))
}

func (k *KeyedLocks) TryLockString(key string) bool {
	return k.TryLock(bytesOf(key))
}

func (k *KeyedLocks) UnlockString(key string) {
	k.Unlock(bytesOf(key))
}

// Locked reports whether the stripe guarding key is currently held.
func (k *KeyedLocks) Locked(key []byte) bool {
	return k.locks.Get(k.Stripe(key))
}

// LockAll takes the stripes of every key in ascending stripe order, so
// concurrent LockAll calls over overlapping key sets do not deadlock.  The
// returned func releases them.
func (k *KeyedLocks) LockAll(keys ...[]byte) (unlock func()) {
	stripes := make([]uint64, len(keys))
	for i, key := range keys {
		stripes[i] = k.Stripe(key)
	}
	held := k.locks.LockAll(stripes...)
	return func() {
		k.locks.UnlockAll(held)
	}
}

func (k *KeyedLocks) String() string {
	return fmt.Sprintf("KeyedLocks{stripes=%d}", k.locks.Len())
}

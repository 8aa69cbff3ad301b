package cache

// lruNode is an element of a recency ring. It remembers its key so
// the owning shard can drop its map entry when the node falls off
// the cold end.
type lruNode[K comparable] struct {
	key        K
	prev, next *lruNode[K]
}

// lruList tracks recency as a circular list around a sentinel root:
// root.next is the hottest node and root.prev the coldest. The list
// does no locking of its own; each shard guards its list with the
// shard mutex.
type lruList[K comparable] struct {
	root lruNode[K]
	len  int
}

func newLRUList[K comparable]() *lruList[K] {
	l := &lruList[K]{}
	l.root.next = &l.root
	l.root.prev = &l.root
	return l
}

// Len reports the number of tracked keys.
func (l *lruList[K]) Len() int {
	return l.len
}

func (l *lruList[K]) insertAfter(node, at *lruNode[K]) {
	node.prev = at
	node.next = at.next
	at.next.prev = node
	at.next = node
	l.len++
}

// PushFront records key as the most recently used and returns its
// node for later MoveToFront and Remove calls.
func (l *lruList[K]) PushFront(key K) *lruNode[K] {
	node := &lruNode[K]{key: key}
	l.insertAfter(node, &l.root)
	return node
}

// MoveToFront marks node as the most recently used. A nil node is
// ignored.
func (l *lruList[K]) MoveToFront(node *lruNode[K]) {
	if node == nil || l.root.next == node {
		return
	}
	l.unlink(node)
	l.insertAfter(node, &l.root)
}

// Remove takes node out of the ring. A nil node is ignored.
func (l *lruList[K]) Remove(node *lruNode[K]) {
	if node == nil {
		return
	}
	l.unlink(node)
}

// RemoveOldest unlinks the least recently used node and returns its
// key, or false when the ring is empty.
func (l *lruList[K]) RemoveOldest() (K, bool) {
	if l.len == 0 {
		var zero K
		return zero, false
	}
	node := l.root.prev
	l.unlink(node)
	return node.key, true
}

// Clear resets the ring to empty. Nodes handed out earlier become
// dangling; callers drop their references alongside.
func (l *lruList[K]) Clear() {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
}

func (l *lruList[K]) unlink(node *lruNode[K]) {
	node.prev.next = node.next
	node.next.prev = node.prev
	node.prev = nil
	node.next = nil
	l.len--
}

package dataType

import "net"

type trieNode struct {
	children [2]*trieNode
	isEnd    bool
}

// SkipList is a bit trie over CIDR ranges, one root per address family.
// Gossip addresses inside any inserted range are excluded from scans.
type SkipList struct {
	v4 *trieNode
	v6 *trieNode
}

func NewSkipList() *SkipList {
	return &SkipList{v4: &trieNode{}, v6: &trieNode{}}
}

// Insert adds a CIDR range, prefix length taken from the mask
func (s *SkipList) Insert(ipNet *net.IPNet) {
	ones, _ := ipNet.Mask.Size()
	ip, root := normalize(ipNet.IP, s)
	if ip == nil {
		return
	}
	current := root
	for i := 0; i < ones; i++ {
		bit := (ip[i/8] >> (7 - uint(i%8))) & 1
		if current.children[bit] == nil {
			current.children[bit] = &trieNode{}
		}
		current = current.children[bit]
	}
	current.isEnd = true
}

// Contains reports whether the ip falls inside any inserted range
func (s *SkipList) Contains(ip net.IP) bool {
	ip, root := normalize(ip, s)
	if ip == nil {
		return false
	}
	current := root
	for i := 0; i < len(ip)*8; i++ {
		if current.isEnd {
			return true
		}
		bit := (ip[i/8] >> (7 - uint(i%8))) & 1
		if current.children[bit] == nil {
			return false
		}
		current = current.children[bit]
	}
	return current.isEnd
}

func normalize(ip net.IP, s *SkipList) (net.IP, *trieNode) {
	if v4 := ip.To4(); v4 != nil {
		return v4, s.v4
	}
	if v6 := ip.To16(); v6 != nil {
		return v6, s.v6
	}
	return nil, nil
}

package pathset_test

import (
	"sync"
	"testing"

	"zimrewrite/internal/logger"
	"zimrewrite/internal/pathset"
	"zimrewrite/pkg/domain"
)

// TestSet_AddContains 测试基本的登记与查询
func TestSet_AddContains(t *testing.T) {
	s := pathset.New(logger.NewNop())
	p := domain.MustZimPath("kiwix.org/a.html")

	if s.Contains(p) {
		t.Error("空集合不应包含任何路径")
	}
	s.Add(p)
	if !s.Contains(p) {
		t.Error("登记后应包含该路径")
	}
	if s.Len() != 1 {
		t.Errorf("期望 1 条实际 %d", s.Len())
	}
}

// TestSet_Missing 测试缺失路径的记录与去重
func TestSet_Missing(t *testing.T) {
	s := pathset.New(logger.NewNop())
	p := domain.MustZimPath("kiwix.org/absent.png")

	s.MarkMissing(p)
	s.MarkMissing(p)
	s.MarkMissing(domain.MustZimPath("kiwix.org/also-absent.css"))

	missing := s.Missing()
	if len(missing) != 2 {
		t.Fatalf("缺失路径期望 2 条实际 %d", len(missing))
	}
	// 返回结果已排序
	if missing[0] != "kiwix.org/absent.png" && missing[1] != "kiwix.org/absent.png" {
		t.Errorf("缺失记录不符: %v", missing)
	}
}

// TestSet_LateAddClearsMissing 测试后补登记撤销缺失记录
func TestSet_LateAddClearsMissing(t *testing.T) {
	s := pathset.New(logger.NewNop())
	p := domain.MustZimPath("kiwix.org/late.png")

	s.MarkMissing(p)
	s.Add(p)
	if len(s.Missing()) != 0 {
		t.Errorf("后补登记后缺失记录应清空: %v", s.Missing())
	}
}

// TestSet_Concurrent 测试并发登记与查询不竞争
func TestSet_Concurrent(t *testing.T) {
	s := pathset.New(logger.NewNop())
	paths := []domain.ZimPath{
		domain.MustZimPath("kiwix.org/a"),
		domain.MustZimPath("kiwix.org/b"),
		domain.MustZimPath("kiwix.org/c"),
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, p := range paths {
				s.Add(p)
				s.Contains(p)
				s.MarkMissing(domain.MustZimPath("kiwix.org/miss"))
			}
		}()
	}
	wg.Wait()

	if s.Len() != len(paths) {
		t.Errorf("期望 %d 条实际 %d", len(paths), s.Len())
	}
}

package checkout

// テストで冪等キーを固定する
func (s *Service) SetKeyFunc(f func() string) { s.newKey = f }

package grade

import "testing"

func TestAlertGateTruthTable(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantSubject bool
		wantVerdict Verdict
		wantAlert   bool
	}{
		{"relevant and not comply", "เกี่ยวกับสินเชื่อ\nNOT COMPLY: ข้อ 3 ไม่มีคำเตือน", true, NotComply, true},
		{"relevant and comply", "เกี่ยวกับสินเชื่อ\nCOMPLY: แสดงคำเตือนครบถ้วน", true, Comply, false},
		{"irrelevant with not comply token", "ไม่เกี่ยวกับสินเชื่อ แต่ข้อความมีคำว่า NOT COMPLY", false, NotComply, false},
		{"irrelevant without verdict", "ไม่เกี่ยวกับสินเชื่อ", false, Unknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Grade(tt.text)
			if d.IsSubjectMatter != tt.wantSubject {
				t.Errorf("IsSubjectMatter = %v, want %v", d.IsSubjectMatter, tt.wantSubject)
			}
			if d.Verdict != tt.wantVerdict {
				t.Errorf("Verdict = %v, want %v", d.Verdict, tt.wantVerdict)
			}
			if d.AlertWorthy() != tt.wantAlert {
				t.Errorf("AlertWorthy = %v, want %v", d.AlertWorthy(), tt.wantAlert)
			}
		})
	}
}

func TestGradeCaseInsensitive(t *testing.T) {
	d := Grade("  เกี่ยวกับสินเชื่อ ... not comply ...")
	if !d.AlertWorthy() {
		t.Errorf("expected lower-case verdict to be recognized, got %+v", d)
	}
}

func TestGradeRelevantMustBePrefix(t *testing.T) {
	d := Grade("สรุป: เกี่ยวกับสินเชื่อ NOT COMPLY")
	if d.IsSubjectMatter {
		t.Error("expected marker in the middle of the text not to count")
	}
}

func TestGradeUnrecognized(t *testing.T) {
	for _, text := range []string{"", "NO CONTENT", "hello world"} {
		d := Grade(text)
		if d.IsSubjectMatter || d.Verdict != Unknown {
			t.Errorf("Grade(%q) = %+v, want not relevant and unknown", text, d)
		}
	}
}

func TestGradeKeepsRationale(t *testing.T) {
	d := Grade("\nเกี่ยวกับสินเชื่อ NOT COMPLY: ข้อ 2\n")
	if d.Rationale != "เกี่ยวกับสินเชื่อ NOT COMPLY: ข้อ 2" {
		t.Errorf("unexpected rationale %q", d.Rationale)
	}
}

package questionbank

import "github.com/dsarena/exam-backend/internal/model"

// The curated sets below mirror the stdin/stdout contract the runner
// enforces: programs read from standard input and print the answer.

var pythonProblems = []model.ExamQuestion{
	{
		ID:          "py-sum-two",
		Title:       "Sum of Two Numbers",
		Description: "Read two space-separated integers and print their sum.",
		Difficulty:  "easy",
		InputFormat: "One line with two integers a and b.",
		StarterCode: "a, b = map(int, input().split())\n# Write your solution here\n",
		VisibleTests: []model.TestCase{
			{Input: "2 3", ExpectedOutput: "5"},
			{Input: "10 -4", ExpectedOutput: "6"},
		},
		HiddenTests: []model.TestCase{
			{Input: "0 0", ExpectedOutput: "0", Hidden: true},
			{Input: "-7 -8", ExpectedOutput: "-15", Hidden: true},
		},
		TimeLimitMs:   2000,
		MemoryLimitMb: 256,
	},
	{
		ID:          "py-reverse-string",
		Title:       "Reverse a String",
		Description: "Read a single line and print it reversed.",
		Difficulty:  "easy",
		InputFormat: "One line containing a word without spaces.",
		StarterCode: "s = input()\n# Write your solution here\n",
		VisibleTests: []model.TestCase{
			{Input: "arena", ExpectedOutput: "anera"},
			{Input: "abc", ExpectedOutput: "cba"},
		},
		HiddenTests: []model.TestCase{
			{Input: "a", ExpectedOutput: "a", Hidden: true},
			{Input: "racecar", ExpectedOutput: "racecar", Hidden: true},
		},
		TimeLimitMs:   2000,
		MemoryLimitMb: 256,
	},
	{
		ID:          "py-second-largest",
		Title:       "Second Largest Element",
		Description: "Read a list of integers and print the second largest distinct value. If no such value exists, print -1.",
		Difficulty:  "medium",
		InputFormat: "One line with n space-separated integers (n >= 1).",
		StarterCode: "nums = list(map(int, input().split()))\n# Write your solution here\n",
		VisibleTests: []model.TestCase{
			{Input: "3 1 4 1 5", ExpectedOutput: "4"},
			{Input: "7 7 7", ExpectedOutput: "-1"},
		},
		HiddenTests: []model.TestCase{
			{Input: "2 9", ExpectedOutput: "2", Hidden: true},
			{Input: "5", ExpectedOutput: "-1", Hidden: true},
		},
		TimeLimitMs:   2000,
		MemoryLimitMb: 256,
	},
	{
		ID:          "py-balanced-brackets",
		Title:       "Balanced Brackets",
		Description: "Read a string of brackets ()[]{} and print YES if it is balanced, otherwise NO.",
		Difficulty:  "hard",
		InputFormat: "One line containing only bracket characters.",
		Constraints: "Length up to 10^5.",
		StarterCode: "s = input()\n# Write your solution here\n",
		VisibleTests: []model.TestCase{
			{Input: "([]{})", ExpectedOutput: "YES"},
			{Input: "([)]", ExpectedOutput: "NO"},
		},
		HiddenTests: []model.TestCase{
			{Input: "(((", ExpectedOutput: "NO", Hidden: true},
			{Input: "{}", ExpectedOutput: "YES", Hidden: true},
		},
		TimeLimitMs:   2000,
		MemoryLimitMb: 256,
	},
}

var javascriptProblems = []model.ExamQuestion{
	{
		ID:          "js-sum-two",
		Title:       "Sum of Two Numbers",
		Description: "Read two space-separated integers and print their sum.",
		Difficulty:  "easy",
		InputFormat: "One line with two integers a and b.",
		StarterCode: "const [a, b] = readline().split(' ').map(Number);\n// Write your solution here\n",
		VisibleTests: []model.TestCase{
			{Input: "2 3", ExpectedOutput: "5"},
			{Input: "10 -4", ExpectedOutput: "6"},
		},
		HiddenTests: []model.TestCase{
			{Input: "0 0", ExpectedOutput: "0", Hidden: true},
			{Input: "100 250", ExpectedOutput: "350", Hidden: true},
		},
		TimeLimitMs:   2000,
		MemoryLimitMb: 256,
	},
	{
		ID:          "js-count-vowels",
		Title:       "Count Vowels",
		Description: "Read a line and print the number of vowels (a, e, i, o, u, case-insensitive).",
		Difficulty:  "medium",
		InputFormat: "One line of text.",
		StarterCode: "const s = readline();\n// Write your solution here\n",
		VisibleTests: []model.TestCase{
			{Input: "hello", ExpectedOutput: "2"},
			{Input: "xyz", ExpectedOutput: "0"},
		},
		HiddenTests: []model.TestCase{
			{Input: "AEIOU", ExpectedOutput: "5", Hidden: true},
			{Input: "queueing", ExpectedOutput: "6", Hidden: true},
		},
		TimeLimitMs:   2000,
		MemoryLimitMb: 256,
	},
	{
		ID:          "js-rotate-array",
		Title:       "Rotate Array Right",
		Description: "Read n integers and k, and print the array rotated k places to the right, space-separated.",
		Difficulty:  "hard",
		InputFormat: "First line: the array. Second line: k.",
		StarterCode: "const nums = readline().split(' ').map(Number);\nconst k = Number(readline());\n// Write your solution here\n",
		VisibleTests: []model.TestCase{
			{Input: "1 2 3 4 5\n2", ExpectedOutput: "4 5 1 2 3"},
			{Input: "1 2\n3", ExpectedOutput: "2 1"},
		},
		HiddenTests: []model.TestCase{
			{Input: "9\n10", ExpectedOutput: "9", Hidden: true},
			{Input: "1 2 3\n0", ExpectedOutput: "1 2 3", Hidden: true},
		},
		TimeLimitMs:   2000,
		MemoryLimitMb: 256,
	},
}

var javaProblems = []model.ExamQuestion{
	{
		ID:          "java-sum-two",
		Title:       "Sum of Two Numbers",
		Description: "Read two space-separated integers and print their sum.",
		Difficulty:  "easy",
		InputFormat: "One line with two integers a and b.",
		StarterCode: "import java.util.Scanner;\n\npublic class Solution {\n    public static void main(String[] args) {\n        Scanner sc = new Scanner(System.in);\n        // Write your solution here\n    }\n}\n",
		VisibleTests: []model.TestCase{
			{Input: "2 3", ExpectedOutput: "5"},
			{Input: "10 -4", ExpectedOutput: "6"},
		},
		HiddenTests: []model.TestCase{
			{Input: "0 0", ExpectedOutput: "0", Hidden: true},
			{Input: "-1 1", ExpectedOutput: "0", Hidden: true},
		},
		TimeLimitMs:   3000,
		MemoryLimitMb: 256,
	},
	{
		ID:          "java-fizzbuzz",
		Title:       "FizzBuzz Line",
		Description: "Read an integer n and print FizzBuzz for multiples of 15, Fizz for multiples of 3, Buzz for multiples of 5, otherwise n itself.",
		Difficulty:  "medium",
		InputFormat: "One integer n.",
		StarterCode: "import java.util.Scanner;\n\npublic class Solution {\n    public static void main(String[] args) {\n        Scanner sc = new Scanner(System.in);\n        // Write your solution here\n    }\n}\n",
		VisibleTests: []model.TestCase{
			{Input: "15", ExpectedOutput: "FizzBuzz"},
			{Input: "7", ExpectedOutput: "7"},
		},
		HiddenTests: []model.TestCase{
			{Input: "9", ExpectedOutput: "Fizz", Hidden: true},
			{Input: "10", ExpectedOutput: "Buzz", Hidden: true},
		},
		TimeLimitMs:   3000,
		MemoryLimitMb: 256,
	},
	{
		ID:          "java-prime-check",
		Title:       "Primality Check",
		Description: "Read an integer n (n >= 2) and print PRIME if it is prime, otherwise COMPOSITE.",
		Difficulty:  "hard",
		InputFormat: "One integer n, up to 10^9.",
		StarterCode: "import java.util.Scanner;\n\npublic class Solution {\n    public static void main(String[] args) {\n        Scanner sc = new Scanner(System.in);\n        // Write your solution here\n    }\n}\n",
		VisibleTests: []model.TestCase{
			{Input: "13", ExpectedOutput: "PRIME"},
			{Input: "21", ExpectedOutput: "COMPOSITE"},
		},
		HiddenTests: []model.TestCase{
			{Input: "2", ExpectedOutput: "PRIME", Hidden: true},
			{Input: "999999937", ExpectedOutput: "PRIME", Hidden: true},
		},
		TimeLimitMs:   3000,
		MemoryLimitMb: 256,
	},
}

var cppProblems = []model.ExamQuestion{
	{
		ID:          "cpp-sum-two",
		Title:       "Sum of Two Numbers",
		Description: "Read two space-separated integers and print their sum.",
		Difficulty:  "easy",
		InputFormat: "One line with two integers a and b.",
		StarterCode: "#include <iostream>\nusing namespace std;\n\nint main() {\n    // Write your solution here\n    return 0;\n}\n",
		VisibleTests: []model.TestCase{
			{Input: "2 3", ExpectedOutput: "5"},
			{Input: "10 -4", ExpectedOutput: "6"},
		},
		HiddenTests: []model.TestCase{
			{Input: "0 0", ExpectedOutput: "0", Hidden: true},
			{Input: "1000000 1000000", ExpectedOutput: "2000000", Hidden: true},
		},
		TimeLimitMs:   2000,
		MemoryLimitMb: 256,
	},
	{
		ID:          "cpp-max-of-array",
		Title:       "Maximum of Array",
		Description: "Read n, then n integers, and print the maximum.",
		Difficulty:  "medium",
		InputFormat: "First line: n. Second line: n integers.",
		StarterCode: "#include <iostream>\nusing namespace std;\n\nint main() {\n    int n;\n    cin >> n;\n    // Write your solution here\n    return 0;\n}\n",
		VisibleTests: []model.TestCase{
			{Input: "4\n3 9 1 7", ExpectedOutput: "9"},
			{Input: "1\n-5", ExpectedOutput: "-5"},
		},
		HiddenTests: []model.TestCase{
			{Input: "3\n-1 -2 -3", ExpectedOutput: "-1", Hidden: true},
			{Input: "5\n5 5 5 5 5", ExpectedOutput: "5", Hidden: true},
		},
		TimeLimitMs:   2000,
		MemoryLimitMb: 256,
	},
	{
		ID:          "cpp-gcd-pair",
		Title:       "Greatest Common Divisor",
		Description: "Read two positive integers and print their greatest common divisor.",
		Difficulty:  "hard",
		InputFormat: "One line with two integers a and b, up to 10^18.",
		StarterCode: "#include <iostream>\nusing namespace std;\n\nint main() {\n    long long a, b;\n    cin >> a >> b;\n    // Write your solution here\n    return 0;\n}\n",
		VisibleTests: []model.TestCase{
			{Input: "12 18", ExpectedOutput: "6"},
			{Input: "7 13", ExpectedOutput: "1"},
		},
		HiddenTests: []model.TestCase{
			{Input: "100 10", ExpectedOutput: "10", Hidden: true},
			{Input: "270 192", ExpectedOutput: "6", Hidden: true},
		},
		TimeLimitMs:   2000,
		MemoryLimitMb: 256,
	},
}

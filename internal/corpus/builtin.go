package corpus

import "htmlfuzz/internal/types"

// BuiltinSeedGrabber serves the seed documents compiled into the binary.
type BuiltinSeedGrabber struct{}

func NewBuiltinSeedGrabber() *BuiltinSeedGrabber {
	return &BuiltinSeedGrabber{}
}

func (b *BuiltinSeedGrabber) GrabSeeds() ([]types.Seed, error) {
	return BuiltinSeeds(), nil
}

// BuiltinSeeds returns a fresh copy of the default corpus.
func BuiltinSeeds() []types.Seed {
	seeds := make([]types.Seed, len(builtinSeeds))
	copy(seeds, builtinSeeds)
	return seeds
}

var builtinSeeds = []types.Seed{
	{
		Name: "hello-world",
		HTML: "<html><head><title>Test</title></head><body><p>Hello World</p></body></html>",
	},
	{
		Name: "titled-div",
		HTML: "<html><head><title>Form</title></head><body><div><p>Content</p></div></body></html>",
	},
	{
		Name: "section-article",
		HTML: "<html><head><title>Test</title></head><body><section><article>Text</article></section></body></html>",
	},
	{
		// same document as hello-world; a second pass with a different random stream
		Name: "hello-world-again",
		HTML: "<html><head><title>Test</title></head><body><p>Hello World</p></body></html>",
	},
	{
		Name: "login-form",
		HTML: `<html>
    <head><title>Form</title></head>
    <body>
        <form action="/submit" method="post" id="test-form">
            <input type="text" name="username" required/>
            <input type="password" name="pwd" minlength="8"/>
            <button type="submit">Send</button>
        </form>
    </body>
</html>
`,
	},
	{
		Name: "nested-list",
		HTML: `<html>
    <body>
        <!-- Main content -->
        <div class="wrapper">
            <div class="content">
                <ul>
                    <li>Item 1</li>
                    <li>Item 2
                        <ul>
                            <li>Subitem</li>
                        </ul>
                    </li>
                </ul>
            </div>
        </div>
    </body>
</html>
`,
	},
	{
		Name: "entities-and-scripts",
		HTML: `<html>
    <body>
        <div>Special chars: &lt; &gt; &amp; &quot; &apos;</div>
        <div>Symbols: © ® ™ € £ ¥</div>
        <div>Unicode: 你好 Привет مرحبا</div>
    </body>
</html>
`,
	},
	{
		Name: "void-elements",
		HTML: `<html>
    <head>
        <meta charset="utf-8"/>
        <link rel="stylesheet" href="style.css"/>
    </head>
    <body>
        <img src="test.jpg" alt="Test"/>
        <br/><hr/>
        <input type="text"/>
    </body>
</html>
`,
	},
}

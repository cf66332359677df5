package sites

// Page-side extractors. Each one is a self-invoking expression that reads
// the rendered result list and returns JSON.stringify of []Record. They run
// via Runtime.evaluate with returnByValue, so they must stay free of
// promises and page globals.

const jsWechat = `
(() => {
    const out = [];
    for (const box of document.querySelectorAll('#main .txt-box')) {
        const li = box.closest('li');
        const titleEl = box.querySelector('h3 a');
        const snippetEl = box.querySelector('p.txt-info, p');
        const accountEl = li?.querySelector('span.all-time-y2');
        const dateEl = li?.querySelector('span.s2');

        const title = titleEl?.textContent?.trim() || '';
        const href = titleEl?.getAttribute('href') || '';
        const snippet = snippetEl?.textContent?.trim() || '';
        const account = accountEl?.textContent?.trim() || '';
        const dateText = dateEl?.textContent?.trim() || '';
        const dateMatch = dateText.match(/(\d{4}-\d{1,2}-\d{1,2})/);

        if (!title || !href) continue;
        out.push({
            source: 'wechat',
            title,
            url: href.startsWith('/') ? 'https://weixin.sogou.com' + href : href,
            snippet: snippet.substring(0, 120),
            author: account,
            date: dateMatch ? dateMatch[1] : ''
        });
    }
    return JSON.stringify(out);
})()
`

const js36kr = `
(() => {
    const out = [];
    for (const item of document.querySelectorAll('.kr-flow-article-item')) {
        const linkEl = item.querySelector('a[href*="/p/"]');
        const titleEl = item.querySelector('.article-item-title');
        const descEl = item.querySelector('.article-item-description');
        const timeEl = item.querySelector('.kr-flow-bar-time');

        const href = linkEl?.getAttribute('href') || '';
        const title = titleEl?.textContent?.trim() || '';
        const desc = descEl?.textContent?.trim() || '';

        if (!title || !href) continue;
        out.push({
            source: '36kr',
            title,
            url: href.startsWith('/') ? 'https://36kr.com' + href : href,
            snippet: desc.substring(0, 120),
            author: '36氪',
            date: timeEl?.textContent?.trim() || ''
        });
    }
    return JSON.stringify(out);
})()
`

const jsXHS = `
(() => {
    const out = [];
    for (const item of document.querySelectorAll('section.note-item')) {
        const titleEl = item.querySelector('.footer .title span');
        const authorEl = item.querySelector('.author .name');
        const linkEl = item.querySelector('a.cover');
        const likeEl = item.querySelector('.like-wrapper .count');
        const footerText = item.querySelector('.footer')?.innerText || '';

        const title = titleEl?.textContent?.trim() || '';
        const author = authorEl?.textContent?.trim() || '';
        const href = linkEl?.getAttribute('href') || '';
        const likes = likeEl?.textContent?.trim() || '';

        // the footer stacks title\nauthor\ndate\nlikes, pick the date line
        let date = '';
        for (const line of footerText.split('\n').map(l => l.trim()).filter(Boolean)) {
            if (/^\d{4}-\d{2}-\d{2}$/.test(line) || /^\d{2}-\d{2}$/.test(line) || /小时前|天前|昨天/.test(line)) {
                date = line;
                break;
            }
        }

        // canonical note url from the id embedded in the href
        const idMatch = href.match(/\/(explore|search_result)\/([a-f0-9]+)/);
        const noteId = idMatch ? idMatch[2] : '';
        if (!title || !noteId) continue;

        out.push({
            source: 'xhs',
            title,
            url: 'https://www.xiaohongshu.com/explore/' + noteId,
            author: '@' + author,
            date,
            likes
        });
    }
    return JSON.stringify(out);
})()
`
